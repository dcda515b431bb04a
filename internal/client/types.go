package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ID accepts JSON strings and numbers: the API is not consistent about identifier types
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Amount accepts JSON numbers and numeric strings (decimal columns are often serialised as strings)
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*a = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount %q is not a number: %w", s, err)
	}
	*a = Amount(f)
	return nil
}

func (a Amount) Float64() float64 { return float64(a) }

// resourcePath joins escaped path segments onto a base path
func resourcePath(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// get performs an authenticated GET and decodes the payload into out (nil to discard)
func (c *Client) get(ctx context.Context, path string, q Query, out any) error {
	p, err := c.Execute(ctx, Request{
		Method:       http.MethodGet,
		Path:         path,
		Query:        q,
		AuthRequired: true,
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := p.Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// send performs an authenticated call with a body and decodes the payload into out (nil to discard)
func (c *Client) send(ctx context.Context, method, path string, body any, out any) error {
	p, err := c.Execute(ctx, Request{
		Method:       method,
		Path:         path,
		Body:         body,
		AuthRequired: true,
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := p.Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// list performs an authenticated GET and decodes a collection response, whatever its envelope
func list[T any](ctx context.Context, c *Client, path string, q Query) ([]T, error) {
	p, err := c.Execute(ctx, Request{
		Method:       http.MethodGet,
		Path:         path,
		Query:        q,
		AuthRequired: true,
	})
	if err != nil {
		return nil, err
	}
	items, err := DecodeCollection[T](p)
	if err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", path, err)
	}
	return items, nil
}

// ListRaw returns the records of any list endpoint without decoding them
func (c *Client) ListRaw(ctx context.Context, path string, q Query) ([]json.RawMessage, error) {
	return list[json.RawMessage](ctx, c, path, q)
}
