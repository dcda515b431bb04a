// Package export writes API records as CSV downloads.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/tidwall/gjson"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const ContentType = "text/csv; charset=utf-8"

// Column selects one value from each record. Path is a gjson path, e.g. "restaurant.name".
type Column struct {
	Header string
	Path   string
}

// WriteCSV writes a header row and one row per record.
// Every field is quoted with inner quotes doubled, and lines end with "\n".
// Missing values and JSON null are written as empty fields.
func WriteCSV(w io.Writer, columns []Column, rows []json.RawMessage) error {
	if len(columns) == 0 {
		return fmt.Errorf("no columns supplied to WriteCSV")
	}

	bw := bufio.NewWriter(w)

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}
	writeRecord(bw, headers)

	fields := make([]string, len(columns))
	for n, row := range rows {
		if !gjson.ValidBytes(row) {
			return fmt.Errorf("row %d is not valid JSON", n)
		}
		for i, col := range columns {
			fields[i] = fieldValue(gjson.GetBytes(row, col.Path))
		}
		writeRecord(bw, fields)
	}

	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

func fieldValue(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.Number:
		return v.Raw
	default:
		// strings unquoted, booleans as true/false, objects and arrays as raw JSON
		return v.String()
	}
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9_\- ]+`)
	slugSpaces  = regexp.MustCompile(`[ ]+`)
	slugDashes  = regexp.MustCompile(`-{2,}`)
)

// Slug makes a filename-safe prefix: diacritics removed, lower case, runs of other characters replaced by "-"
func Slug(input string) string {
	normalized := norm.NFD.String(input)

	withoutDiacritics, _, err := transform.String(runes.Remove(runes.In(unicode.Mn)), normalized)
	if err != nil {
		withoutDiacritics = normalized
	}

	lowerCase := strings.ToLower(withoutDiacritics)
	hyphenated := slugInvalid.ReplaceAllString(lowerCase, "-")
	hyphenated = slugSpaces.ReplaceAllString(hyphenated, "-")
	hyphenated = slugDashes.ReplaceAllString(hyphenated, "-")

	return strings.Trim(hyphenated, "-")
}

// Filename returns "<slug(prefix)>_<YYYY-MM-DD>.csv" for the day of t
func Filename(prefix string, t time.Time) string {
	slug := Slug(prefix)
	if slug == "" {
		slug = "export"
	}
	return fmt.Sprintf("%s_%s.csv", slug, t.Format(time.DateOnly))
}
