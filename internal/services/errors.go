package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/roastx/internal/shared"
	"github.com/tidwall/gjson"
)

// StatusError is returned for a remote response outside 2xx and 3xx.
//
// errors.Is(err, shared.ErrAPIRequest) holds for every StatusError.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s returned %d", shared.ErrAPIRequest, e.Method, e.Path, e.StatusCode)
	if m := e.Message(); m != "" {
		msg += ": " + m
	}
	return msg
}

func (e *StatusError) Is(target error) bool {
	return target == shared.ErrAPIRequest
}

// Message returns the server's "error" or "detail" field, if any.
func (e *StatusError) Message() string {
	res := gjson.ParseBytes(e.Body)
	for _, path := range []string{"error", "detail", "message"} {
		if v := res.Get(path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// Messages flattens a form error payload.
//
// "errors" may be a string, an object of strings, or an object of string
// lists; all are accepted.
func (e *StatusError) Messages() []string {
	errs := gjson.GetBytes(e.Body, "errors")
	if !errs.Exists() {
		return nil
	}

	if errs.Type == gjson.String {
		return []string{errs.String()}
	}

	var out []string
	var collect func(v gjson.Result)
	collect = func(v gjson.Result) {
		switch {
		case v.IsArray() || v.IsObject():
			v.ForEach(func(_, item gjson.Result) bool {
				collect(item)
				return true
			})
		case v.Type == gjson.String:
			if s := strings.TrimSpace(v.String()); s != "" {
				out = append(out, s)
			}
		case v.Exists() && v.Type != gjson.Null:
			out = append(out, v.Raw)
		}
	}
	collect(errs)
	return out
}

func newStatusError(method, path string, resp *APIResponse) *StatusError {
	return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: resp.Body}
}

// StatusCode returns the remote status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsBadRequest reports a 400, the user-correctable form error.
func IsBadRequest(err error) bool {
	return StatusCode(err) == http.StatusBadRequest
}

// IsUnauthorized reports a 401 or 403.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsTransport reports a failure to reach the remote API at all.
func IsTransport(err error) bool {
	return errors.Is(err, shared.ErrServiceUnavailable)
}
