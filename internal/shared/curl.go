// Utilities for parsing cURL commands copied from browser DevTools.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlURLRegex    = regexp.MustCompile(`curl\s+'([^']+)'|curl\s+"([^"]+)"|(?:^|\s)(https?://[^\s'"]+)(?:\s|$)`)
)

// CurlRequest is the part of a "Copy as cURL" request needed to reuse a browser session.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookies map[string]string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts its request.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts the URL, headers and cookies.
//
// A -b/--cookie value takes precedence over a Cookie header.
func ParseCurlCommand(curlCmd string) (*CurlRequest, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	req := &CurlRequest{Headers: map[string]string{}, Cookies: map[string]string{}}

	if m := curlURLRegex.FindStringSubmatch(curlCmd); m != nil {
		req.URL = firstNonEmpty(m[1:]...)
	}

	var cookieHeader string
	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstNonEmpty(match[1:]...), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			cookieHeader = value
			continue
		}
		req.Headers[key] = value
	}

	if m := curlCookieRegex.FindStringSubmatch(curlCmd); m != nil {
		cookieHeader = firstNonEmpty(m[1:]...)
	}

	for _, c := range ParseCookieHeader(cookieHeader) {
		req.Cookies[c.Name] = c.Value
	}

	if len(req.Headers) == 0 && len(req.Cookies) == 0 {
		return nil, fmt.Errorf("%w: no headers or cookies found in curl command", ErrInvalidInput)
	}

	return req, nil
}

// CSRFToken returns the X-CSRFToken header when present, falling back to the named cookie.
func (c *CurlRequest) CSRFToken(cookieName string) string {
	for k, v := range c.Headers {
		if strings.EqualFold(k, "x-csrftoken") {
			return v
		}
	}
	return c.Cookies[cookieName]
}

// ParseCookieHeader parses a "a=1; b=2" Cookie header value.
func ParseCookieHeader(header string) []*http.Cookie {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return nil
	}
	return cookies
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
