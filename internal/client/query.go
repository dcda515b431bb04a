package client

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Param is one query parameter. Value may be any scalar, pointer, slice or time.Time.
type Param struct {
	Key   string
	Value any
}

// Query is an ordered list of parameters.
//
// Encoding drops parameters whose value is nil, a nil pointer, an empty string or an empty slice,
// joins slice values with commas and keeps the insertion order, so the same Query always encodes
// to the same string.
type Query []Param

// Add returns q with key=value appended
func (q Query) Add(key string, value any) Query {
	return append(q, Param{Key: key, Value: value})
}

// QueryFromMap builds a Query from a map, ordering keys alphabetically
func QueryFromMap(m map[string]any) Query {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := make(Query, 0, len(keys))
	for _, k := range keys {
		q = append(q, Param{Key: k, Value: m[k]})
	}
	return q
}

// Encode returns the URL-encoded query string without the leading "?"
func (q Query) Encode() string {
	var b strings.Builder
	for _, p := range q {
		value, ok := formatQueryValue(p.Value)
		if !ok || p.Key == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return b.String()
}

// formatQueryValue reports ok=false for values that must be left out of the query string
func formatQueryValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	switch t := v.(type) {
	case string:
		return t, t != ""
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.Format(time.RFC3339), true
	case bool:
		return strconv.FormatBool(t), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
		return formatQueryValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "", false
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := formatQueryValue(rv.Index(i).Interface()); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ","), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.String:
		s := rv.String()
		return s, s != ""
	}

	if s, ok := v.(fmt.Stringer); ok {
		str := s.String()
		return str, str != ""
	}
	return fmt.Sprint(v), true
}
