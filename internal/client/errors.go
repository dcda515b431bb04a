package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrAborted is matched by errors returned for calls whose context was cancelled by the caller.
	// Aborted calls are not failures: callers should drop them without reporting anything.
	ErrAborted = errors.New("request aborted")

	// ErrNotCollection is returned when a payload does not have any of the accepted collection shapes
	ErrNotCollection = errors.New("payload is not a collection")

	// ErrResponseTooLarge is returned instead of a truncated body
	ErrResponseTooLarge = errors.New("response body too large")
)

// AuthExpiredError is returned when the API answers 401 to a call that needed the session token.
// The session has already been cleared when the caller sees this error.
type AuthExpiredError struct {
	Method string
	Path   string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("session expired: %s %s returned 401", e.Method, e.Path)
}

func (e *AuthExpiredError) UserError() string {
	return "Your session has expired. Please log in again."
}

// HTTPError is returned when the API rejected the request with a non-2xx status
type HTTPError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Method     string
	Path       string
}

func (e *HTTPError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("inksa api status %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("inksa api status %d - %s (%s %s)", e.StatusCode, e.Message, e.Method, e.Path)
}

// UserError returns a message that can be shown to the operator
func (e *HTTPError) UserError() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "Login failed. Please check your email and password and try again."
	case http.StatusForbidden:
		return "You don't have permission to access this resource."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		// validation errors: the server message is the most useful thing we have
		if e.Message != "" && e.Message != defaultHTTPMessage(e.StatusCode) {
			return e.Message
		}
		return "Invalid request. Please check your input and try again."
	case http.StatusTooManyRequests:
		return "Too many requests. Please try again in a few moments."
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An error occurred. Please try again."
	}
}

// NetworkError is returned when no response was received (DNS, refused connection, timeout)
type NetworkError struct {
	Method  string
	Path    string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("network error: %s %s timed out: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) UserError() string {
	if e.Timeout {
		return "The server took too long to respond. Please try again."
	}
	return "Unable to connect. Please check your internet connection and try again."
}

func defaultHTTPMessage(status int) string {
	return fmt.Sprintf("request failed (%d)", status)
}

// newHTTPError builds an HTTPError from an error response body.
// The message comes from "message", then "error" (a string or an object with its own "message"),
// then "detail"; the code from "error_code" or "code".
func newHTTPError(method, path string, status int, body []byte) *HTTPError {
	e := &HTTPError{
		StatusCode: status,
		Method:     method,
		Path:       path,
	}

	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		if parsed.IsObject() {
			e.Message = firstString(parsed, "message", "error", "error.message", "detail", "msg")
			e.ErrorCode = firstString(parsed, "error_code", "code", "error.code")
		}
	}

	if e.Message == "" {
		e.Message = defaultHTTPMessage(status)
	}
	return e
}

func firstString(parsed gjson.Result, paths ...string) string {
	for _, path := range paths {
		v := parsed.Get(path)
		if v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// IsNotFound reports whether err is an HTTPError with status 404
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

func IsAuthExpired(err error) bool {
	var authErr *AuthExpiredError
	return errors.As(err, &authErr)
}

func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

// UserMessage returns the operator-facing message for any error returned by the client
func UserMessage(err error) string {
	var userErr interface{ UserError() string }
	if errors.As(err, &userErr) {
		return userErr.UserError()
	}
	return "An error occurred. Please try again later."
}
