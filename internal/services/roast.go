package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// RoastClient implements [RoastService] over HTTP.
type RoastClient struct {
	api    *APIService
	paths  shared.APIPaths
	auth   shared.AuthConfig
	oauth  *oauth2.Config
	logger *log.Logger
}

// NewRoastClient wraps api with the endpoint paths and login settings in cfg.
func NewRoastClient(api *APIService, cfg *shared.Config, logger *log.Logger) *RoastClient {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	c := &RoastClient{
		api:    api,
		paths:  cfg.API.Paths,
		auth:   cfg.Auth,
		logger: logger,
	}

	if sp := cfg.Auth.Spotify; sp.ClientID != "" {
		c.oauth = &oauth2.Config{
			ClientID:    sp.ClientID,
			RedirectURL: sp.RedirectURI,
			Scopes:      sp.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		}
	}
	return c
}

// NewRoastClientFromConfig builds the HTTP client, limiter and API service described by cfg.
func NewRoastClientFromConfig(cfg *shared.Config, logger *log.Logger) *RoastClient {
	api := NewAPIService(cfg.API.BaseURL, NewHTTPClient(cfg.API.Timeout())).WithCSRFCookie(cfg.API.CSRFCookie)
	if l := NewLimiter(cfg.API.RateLimit); l != nil {
		api.WithLimiter(l)
	}
	return NewRoastClient(api, cfg, logger)
}

// NewLimiter returns a token bucket allowing rps requests per second, or nil
// for no limit.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (c *RoastClient) API() *APIService { return c.api }

func (c *RoastClient) call(ctx context.Context, req Request) (*APIResponse, error) {
	start := time.Now()
	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("remote request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if !resp.OK() {
		return resp, newStatusError(req.Method, req.Path, resp)
	}
	return resp, nil
}

func (c *RoastClient) get(ctx context.Context, jar models.CookieJar, path string, query url.Values) (*APIResponse, error) {
	return c.call(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Jar: jar})
}

func (c *RoastClient) post(ctx context.Context, jar models.CookieJar, path string, form url.Values) (*APIResponse, error) {
	if form == nil {
		form = url.Values{}
	}
	return c.call(ctx, Request{Method: http.MethodPost, Path: path, Form: form, Jar: jar})
}

// LoginURL prefers auth.login_url, then a Spotify authorize URL, then the remote auth path.
func (c *RoastClient) LoginURL() string {
	if c.auth.LoginURL != "" {
		return c.auth.LoginURL
	}
	if c.oauth != nil {
		return c.oauth.AuthCodeURL(shared.GenerateID())
	}
	return c.api.BaseURL() + c.paths.AuthURL
}

func (c *RoastClient) CSRF(ctx context.Context, jar models.CookieJar) error {
	_, err := c.get(ctx, jar, c.paths.CSRFToken, nil)
	return err
}

// ensureCSRF fetches the token cookie when jar has none yet.
func (c *RoastClient) ensureCSRF(ctx context.Context, jar models.CookieJar) error {
	if jar.Cookie(c.api.csrfCookie) != "" {
		return nil
	}
	if err := c.CSRF(ctx, jar); err != nil {
		return err
	}
	if jar.Cookie(c.api.csrfCookie) == "" {
		return fmt.Errorf("%w: remote did not set %s", shared.ErrMissingCSRF, c.api.csrfCookie)
	}
	return nil
}

// IsAuthenticated treats 401 and 403 as a negative status rather than an error.
func (c *RoastClient) IsAuthenticated(ctx context.Context, jar models.CookieJar) (bool, error) {
	resp, err := c.get(ctx, jar, c.paths.AuthStatus, nil)
	if IsUnauthorized(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	root, err := parseBody(resp.Body)
	if err != nil {
		return false, err
	}
	return truthy(root.Get("status")), nil
}

func (c *RoastClient) Username(ctx context.Context, jar models.CookieJar) (string, error) {
	resp, err := c.get(ctx, jar, c.paths.Username, nil)
	if err != nil {
		return "", err
	}
	root, err := parseBody(resp.Body)
	if err != nil {
		return "", err
	}
	return str(root, "username"), nil
}

func (c *RoastClient) Login(ctx context.Context, jar models.CookieJar, creds models.Credentials) error {
	if err := c.ensureCSRF(ctx, jar); err != nil {
		return err
	}
	_, err := c.post(ctx, jar, c.paths.Login, url.Values{
		"username": {creds.Username},
		"password": {creds.Password},
	})
	return err
}

func (c *RoastClient) Signup(ctx context.Context, jar models.CookieJar, creds models.Credentials) error {
	if err := c.ensureCSRF(ctx, jar); err != nil {
		return err
	}
	_, err := c.post(ctx, jar, c.paths.Signup, url.Values{
		"username":  {creds.Username},
		"email":     {creds.Email},
		"password1": {creds.Password},
		"password2": {creds.Confirm},
	})
	return err
}

func (c *RoastClient) Logout(ctx context.Context, jar models.CookieJar) error {
	_, err := c.post(ctx, jar, c.paths.Logout, nil)
	return err
}

func (c *RoastClient) DeleteAccount(ctx context.Context, jar models.CookieJar) error {
	_, err := c.post(ctx, jar, c.paths.DeleteAccount, nil)
	return err
}

func (c *RoastClient) UsernameExists(ctx context.Context, jar models.CookieJar, username string) (bool, error) {
	resp, err := c.get(ctx, jar, c.paths.CheckUsername, url.Values{"username": {username}})
	if err != nil {
		return false, err
	}
	root, err := parseBody(resp.Body)
	if err != nil {
		return false, err
	}
	return truthy(root.Get("exists")), nil
}

func (c *RoastClient) UpdateUser(ctx context.Context, jar models.CookieJar) error {
	_, err := c.get(ctx, jar, c.paths.UpdateUser, nil)
	return err
}

func (c *RoastClient) CreateWrapped(ctx context.Context, jar models.CookieJar, tr models.TimeRange) (string, error) {
	resp, err := c.get(ctx, jar, c.paths.AddWrapped, url.Values{"termselection": {tr.Value()}})
	if err != nil {
		return "", err
	}
	return parseCreated(resp.Body, "spotify_wrapped")
}

func (c *RoastClient) CreateDuo(ctx context.Context, jar models.CookieJar, tr models.TimeRange, user1, user2 string) (string, error) {
	if user2 == "" {
		return "", fmt.Errorf("%w: duo partner", shared.ErrMissingArgument)
	}
	resp, err := c.get(ctx, jar, c.paths.AddDuo, url.Values{
		"termselection": {tr.Value()},
		"user1":         {user1},
		"user2":         {user2},
	})
	if err != nil {
		return "", err
	}
	return parseCreated(resp.Body, "duo_wrapped")
}

func (c *RoastClient) display(ctx context.Context, jar models.CookieJar, category, id string, duo bool) ([]byte, error) {
	if id == "" || id == models.PendingRecordID {
		return nil, fmt.Errorf("%w: no active record", shared.ErrRecordNotFound)
	}
	resp, err := c.get(ctx, jar, c.paths.Display+category, url.Values{
		"id":    {id},
		"isDuo": {strconv.FormatBool(duo)},
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *RoastClient) Artists(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Ranking, error) {
	body, err := c.display(ctx, jar, CategoryArtists, id, duo)
	if err != nil {
		return models.Ranking{}, err
	}
	return parseRanking(body, CategoryArtists, duo)
}

func (c *RoastClient) Tracks(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Ranking, error) {
	body, err := c.display(ctx, jar, CategoryTracks, id, duo)
	if err != nil {
		return models.Ranking{}, err
	}
	return parseRanking(body, CategoryTracks, duo)
}

func (c *RoastClient) Genres(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Genres, error) {
	body, err := c.display(ctx, jar, CategoryGenres, id, duo)
	if err != nil {
		return models.Genres{}, err
	}
	return parseGenres(body, duo)
}

func (c *RoastClient) Quirky(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Quirky, error) {
	body, err := c.display(ctx, jar, CategoryQuirky, id, duo)
	if err != nil {
		return models.Quirky{}, err
	}
	return parseQuirky(body, duo)
}

func (c *RoastClient) Summary(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Summary, error) {
	body, err := c.display(ctx, jar, CategorySummary, id, duo)
	if err != nil {
		return models.Summary{}, err
	}
	return parseSummary(body, duo)
}

func (c *RoastClient) History(ctx context.Context, jar models.CookieJar) ([]models.HistoryEntry, error) {
	resp, err := c.get(ctx, jar, c.paths.History, nil)
	if err != nil {
		return nil, err
	}
	return parseHistory(resp.Body)
}

func (c *RoastClient) Requests(ctx context.Context, jar models.CookieJar) (models.DuoRequests, error) {
	resp, err := c.get(ctx, jar, c.paths.Requests, nil)
	if err != nil {
		return models.DuoRequests{}, err
	}
	return parseRequests(resp.Body)
}
