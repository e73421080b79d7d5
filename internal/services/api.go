// API service for making raw HTTP requests to the remote roast API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "http://localhost:8000"
	defaultCSRFCookie = "csrftoken"
	csrfHeader        = "X-CSRFToken"
)

// APIService sends cookie-carrying requests to the remote roast API.
//
// Non-2xx responses are returned, not turned into errors; [RoastClient] decides
// what a status means.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	csrfCookie string
}

// NewAPIService creates a new API service instance for the remote API.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		csrfCookie: defaultCSRFCookie,
	}
}

// NewHTTPClient returns a client that does not follow redirects, so remote
// views that answer with a redirect count as success instead of fetching a page
// on some other host.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// WithLimiter paces every outbound request through l.
func (a *APIService) WithLimiter(l *rate.Limiter) *APIService {
	a.limiter = l
	return a
}

// WithCSRFCookie changes the cookie the CSRF header is read from.
func (a *APIService) WithCSRFCookie(name string) *APIService {
	if name != "" {
		a.csrfCookie = name
	}
	return a
}

func (a *APIService) BaseURL() string { return a.baseURL }

// Request describes one call. At most one of Form and JSON is sent as the body.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	JSON   []byte
	Jar    models.CookieJar
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx or 3xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// Result parses the body for gjson path lookups.
func (r *APIResponse) Result() gjson.Result {
	return gjson.ParseBytes(r.Body)
}

// Do sends req with the jar's cookies and merges any Set-Cookie headers back
// into the jar. State-changing methods carry the CSRF header.
func (a *APIService) Do(ctx context.Context, req Request) (*APIResponse, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrServiceUnavailable, err)
		}
	}

	fullURL := a.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
	case req.JSON != nil:
		body = bytes.NewReader(req.JSON)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	switch {
	case req.Form != nil:
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case req.JSON != nil:
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if req.Jar != nil {
		cookies := req.Jar.Cookies()
		names := make([]string, 0, len(cookies))
		for name := range cookies {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			httpReq.AddCookie(&http.Cookie{Name: name, Value: cookies[name]})
		}

		if stateChanging(req.Method) {
			if token := req.Jar.Cookie(a.csrfCookie); token != "" {
				httpReq.Header.Set(csrfHeader, token)
			}
		}
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if req.Jar != nil {
		mergeCookies(req.Jar, resp.Cookies())
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, jar models.CookieJar) (*APIResponse, error) {
	return a.Do(ctx, Request{Method: http.MethodGet, Path: path, Jar: jar})
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte, jar models.CookieJar) (*APIResponse, error) {
	if data == nil {
		data = []byte("{}")
	}
	return a.Do(ctx, Request{Method: http.MethodPost, Path: path, JSON: data, Jar: jar})
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// mergeCookies applies Set-Cookie headers to jar. Deleted or expired cookies are removed.
func mergeCookies(jar models.CookieJar, cookies []*http.Cookie) {
	now := time.Now()
	for _, c := range cookies {
		expired := c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now))
		if expired || c.Value == "" {
			jar.SetCookie(c.Name, "")
			continue
		}
		jar.SetCookie(c.Name, c.Value)
	}
}
