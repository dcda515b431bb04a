package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
)

// Payload is a successful API response with any {"data": ...} envelope already removed
type Payload struct {
	StatusCode int
	Header     http.Header

	raw    []byte
	isJSON bool
}

// newPayload unwraps the response envelope: an object with a "data" key yields that value,
// anything else valid JSON is kept verbatim and other bodies are kept as text.
func newPayload(status int, header http.Header, body []byte) *Payload {
	p := &Payload{StatusCode: status, Header: header}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return p
	}

	if !gjson.ValidBytes(trimmed) {
		p.raw = body
		return p
	}

	p.isJSON = true
	parsed := gjson.ParseBytes(trimmed)
	if parsed.IsObject() {
		if data := parsed.Get("data"); data.Exists() {
			p.raw = []byte(data.Raw)
			return p
		}
	}
	p.raw = trimmed
	return p
}

// jsonPayload wraps an in-memory value, used for demo data
func jsonPayload(v any) (*Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Payload{StatusCode: http.StatusOK, Header: http.Header{}, raw: b, isJSON: true}, nil
}

func (p *Payload) IsJSON() bool { return p != nil && p.isJSON }

func (p *Payload) Empty() bool { return p == nil || len(p.raw) == 0 }

// Bytes returns the unwrapped JSON payload, or the raw body for non-JSON responses
func (p *Payload) Bytes() []byte {
	if p == nil {
		return nil
	}
	return p.raw
}

func (p *Payload) Text() string { return string(p.Bytes()) }

// Get reads a value from a JSON payload using a gjson path
func (p *Payload) Get(path string) gjson.Result {
	if !p.IsJSON() {
		return gjson.Result{}
	}
	return gjson.GetBytes(p.raw, path)
}

// Decode unmarshals a JSON payload into v. An empty payload leaves v untouched.
func (p *Payload) Decode(v any) error {
	if p.Empty() {
		return nil
	}
	if !p.isJSON {
		return errors.New("payload is not JSON")
	}
	return json.Unmarshal(p.raw, v)
}

// MarshalJSON lets a payload be passed through unchanged; text payloads become JSON strings
func (p *Payload) MarshalJSON() ([]byte, error) {
	if p.Empty() {
		return []byte("null"), nil
	}
	if p.isJSON {
		return p.raw, nil
	}
	return json.Marshal(string(p.raw))
}

// collectionKeys lists, in order, the object keys that may hold a list of records
var collectionKeys = []string{"items", "data", "results", "rows"}

// UnwrapCollection returns the records of a list response.
//
// Accepted shapes, tried in order: a bare array, then an object whose "items", "data", "results"
// or "rows" field is an array. An empty payload or JSON null is an empty collection.
func UnwrapCollection(p *Payload) ([]json.RawMessage, error) {
	if p.Empty() {
		return []json.RawMessage{}, nil
	}
	if !p.isJSON {
		return nil, ErrNotCollection
	}

	parsed := gjson.ParseBytes(p.raw)
	switch {
	case parsed.Type == gjson.Null:
		return []json.RawMessage{}, nil
	case parsed.IsArray():
		return rawElements(parsed), nil
	case parsed.IsObject():
		for _, key := range collectionKeys {
			if v := parsed.Get(key); v.IsArray() {
				return rawElements(v), nil
			}
		}
	}
	return nil, ErrNotCollection
}

func rawElements(arr gjson.Result) []json.RawMessage {
	elems := arr.Array()
	out := make([]json.RawMessage, 0, len(elems))
	for _, e := range elems {
		out = append(out, json.RawMessage(e.Raw))
	}
	return out
}

// DecodeCollection unwraps a list response and decodes each record into T
func DecodeCollection[T any](p *Payload) ([]T, error) {
	rows, err := UnwrapCollection(p)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := json.Unmarshal(row, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
