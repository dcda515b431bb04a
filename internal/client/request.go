package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/session"
	"github.com/google/uuid"
)

// maxResponseBytes is the largest response body accepted; larger bodies fail with ErrResponseTooLarge
const maxResponseBytes = 8 << 20

// Request describes one API call. It is not modified by Execute and can be reused.
type Request struct {
	Method string
	Path   string
	Query  Query

	// Body is JSON-encoded, except *Form (multipart) and []byte / io.Reader (sent as-is).
	// An io.Reader can only be sent once.
	Body any

	// Header values replace the defaults, except the multipart Content-Type
	Header http.Header

	// AuthRequired attaches the session token; a 401 answer then ends the session
	AuthRequired bool

	// Timeout overrides the client default; negative disables the ceiling for this call
	Timeout time.Duration
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

// Form is a multipart/form-data body, used for uploads
type Form struct {
	fields [][2]string
	files  []formFile
}

func NewForm() *Form { return &Form{} }

// Field adds a text field; empty values are skipped
func (f *Form) Field(name, value string) *Form {
	if value != "" {
		f.fields = append(f.fields, [2]string{name, value})
	}
	return f
}

// File adds a file part
func (f *Form) File(field, filename string, data []byte) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, data: data})
	return f
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// encodeBody returns the request body and the Content-Type it needs ("" = none)
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Form:
		data, contentType, err := b.encode()
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), contentType, nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case io.Reader:
		return b, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func (c *Client) buildURL(path string, q Query) string {
	var u string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		u = path
	} else {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		u = c.baseURL + path
	}

	encoded := q.Encode()
	if encoded == "" {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&" + encoded
	}
	return u + "?" + encoded
}

func (c *Client) requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = c.timeout
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Execute performs the request and returns the unwrapped payload.
//
// Errors: *AuthExpiredError (401 on an auth-required call, session already cleared),
// *HTTPError (any other non-2xx), *NetworkError (no response, including timeouts) and
// errors matching ErrAborted when ctx was cancelled.
func (c *Client) Execute(ctx context.Context, req Request) (*Payload, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body for %s %s: %w", method, req.Path, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.transportError(ctx, method, req.Path, err)
		}
	}

	reqCtx, cancel := c.requestContext(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("creating request %s %s: %w", method, req.Path, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if _, ok := req.Body.(*Form); ok {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if req.AuthRequired {
		if token := c.store.Token(); token != "" {
			httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	start := time.Now()
	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, method, req.Path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes+1))
	if err != nil {
		return nil, c.transportError(ctx, method, req.Path, err)
	}
	if len(raw) > maxResponseBytes {
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", method, req.Path, ErrResponseTooLarge, maxResponseBytes)
	}

	// the caller gave up while the response was in flight: the result is stale
	if ctx.Err() != nil {
		return nil, c.transportError(ctx, method, req.Path, ctx.Err())
	}

	c.logger.Debug("api request completed",
		slog.String("component", "client.Execute"),
		slog.String("method", method),
		slog.String("path", req.Path),
		slog.Int("status", res.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if res.StatusCode == http.StatusUnauthorized && req.AuthRequired {
		c.store.Clear(session.ClearOptions{Redirect: true})
		return nil, &AuthExpiredError{Method: method, Path: req.Path}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, newHTTPError(method, req.Path, res.StatusCode, raw)
	}

	return newPayload(res.StatusCode, res.Header, raw), nil
}

// transportError classifies a failure that produced no usable response
func (c *Client) transportError(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s %s: %w", method, path, ErrAborted)
	}

	timeout := errors.Is(err, context.DeadlineExceeded)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}

	c.logger.Debug("api request failed",
		slog.String("component", "client.Execute"),
		slog.String("method", method),
		slog.String("path", path),
		slog.Bool("timeout", timeout),
		slog.String("error", err.Error()),
	)

	return &NetworkError{Method: method, Path: path, Timeout: timeout, Err: err}
}
