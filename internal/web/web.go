// Package web implements the server-rendered roast web app.
//
// # Architecture
//
// The Go process renders every screen and keeps the visitor's wizard state in
// a server-side [models.Session], loaded per request by the session
// middleware in package server. Remote API calls carry the cookies stored in
// that session, plus any forwarded browser cookies.
//
// Routes
//
//	GET  /                       landing, redirects signed-in visitors to the dashboard
//	GET  /login, POST /login     login form
//	GET  /signup, POST /signup   signup form
//	GET  /dashboard              time range, duo partner, account buttons
//	POST /dashboard/timerange    persist the radio selection
//	POST /dashboard/duo          check the partner, then create a duo record
//	POST /dashboard/logout       sign out
//	POST /dashboard/delete       delete the remote account
//	POST /wrapped/title          create a solo record
//	GET  /wrapped/{slide}        render one slide
//	POST /wrapped/{slide}/next   303 to the following slide
//	GET  /wrapped/summary.md     summary as markdown
//	GET  /history                past records
//	GET  /history/{id}           replay a past record
//	GET  /requests               pending duo invitations
//
// # Templates
//
// base.html holds the layout and components.html the shared cards, loading
// placeholder and advance button. Each page template defines "content" and
// is parsed into a clone of the base per render.
//
// # Failure handling
//
// Slide fetch failures are logged and render the loading text. Form errors
// from the remote API are shown inline. Transport failures on the dashboard
// send the visitor back to the landing page.
package web

import (
	"embed"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/server"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/desertthunder/roastx/internal/wizard"
)

//go:embed templates/*
var templatesFS embed.FS

// Popup and inline form messages.
const (
	MsgUnknownUser     = "Username does not exist. Please retype it."
	MsgLoginFailed     = "Login failed. Retype username and password."
	MsgSignupFailed    = "Signup failed. Check the form and try again."
	MsgGenericError    = "An error occurred. Please try again."
	MsgUnexpectedError = "An unexpected error occurred. Please try again."
)

// GuestName is shown when the remote API does not return a username.
const GuestName = "Guest"

// Options configures an [App].
type Options struct {
	Service        services.RoastService
	Sessions       *server.SessionManager
	Records        models.RecordLog // optional local record log
	Logger         *log.Logger
	ForwardCookies []string // browser cookies passed through to the remote API
}

// App serves every page of the web app.
type App struct {
	svc      services.RoastService
	wizard   *wizard.Wizard
	sessions *server.SessionManager
	renderer *renderer
	logger   *log.Logger
	forward  []string
}

// New parses the templates and wires opts into an [App].
func New(opts Options) (*App, error) {
	if opts.Service == nil {
		return nil, errors.New("web: a roast service is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("web: a session manager is required")
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	r, err := newRenderer(templatesFS)
	if err != nil {
		return nil, err
	}

	wiz := wizard.New(opts.Service, opts.Logger)
	if opts.Records != nil {
		wiz.WithRecordLog(opts.Records)
	}

	return &App{
		svc:      opts.Service,
		wizard:   wiz,
		sessions: opts.Sessions,
		renderer: r,
		logger:   opts.Logger,
		forward:  opts.ForwardCookies,
	}, nil
}

// Routes registers every page on router.
func (a *App) Routes(router server.Router) {
	handle := router.HandleFunc

	handle(http.MethodGet, "/{$}", a.handleLanding)
	handle(http.MethodGet, "/login", a.handleLoginForm)
	handle(http.MethodPost, "/login", a.handleLogin)
	handle(http.MethodGet, "/signup", a.handleSignupForm)
	handle(http.MethodPost, "/signup", a.handleSignup)

	handle(http.MethodGet, "/dashboard", a.handleDashboard)
	handle(http.MethodPost, "/dashboard/timerange", a.handleTimeRange)
	handle(http.MethodPost, "/dashboard/duo", a.handleDuo)
	handle(http.MethodPost, "/dashboard/logout", a.handleLogout)
	handle(http.MethodPost, "/dashboard/delete", a.handleDeleteAccount)

	handle(http.MethodPost, "/wrapped/title", a.handleStart)
	handle(http.MethodGet, "/wrapped/summary.md", a.handleSummaryMarkdown)
	handle(http.MethodGet, "/wrapped/{slide}", a.handleSlide)
	handle(http.MethodPost, "/wrapped/{slide}/next", a.handleNext)

	handle(http.MethodGet, "/history", a.handleHistory)
	handle(http.MethodGet, "/history/{id}", a.handleReplay)
	handle(http.MethodGet, "/requests", a.handleRequests)
}

// Handler returns the full middleware stack and routes.
func (a *App) Handler() http.Handler {
	router := server.NewBasicRouter()
	router.Use(server.Logging(a.logger), server.Recovery(a.logger))
	// Liveness checks must not mint sessions.
	router.Handler(server.Health{})
	router.Use(a.sessions.Middleware)
	a.Routes(router)
	return router
}

// session returns the request's session and the cookie jar for remote calls.
func (a *App) session(r *http.Request) (*models.Session, models.CookieJar) {
	sess, ok := server.SessionFrom(r.Context())
	if !ok {
		// Only reachable when a handler is mounted without the session middleware.
		sess = models.NewSession(a.sessions.TTL())
	}
	return sess, services.WithForwarded(sess, r.Cookies(), a.forward)
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, page PageData) {
	if err := a.renderer.render(w, r, status, name, page); err != nil {
		server.LoggerFrom(r.Context()).Error("render failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// formMessage picks the inline message for a failed form submission.
func formMessage(err error, badRequest string) string {
	var se *services.StatusError
	switch {
	case services.IsBadRequest(err) && errors.As(err, &se):
		if msgs := se.Messages(); len(msgs) > 0 {
			return joinMessages(msgs)
		}
		if m := se.Message(); m != "" {
			return m
		}
		return badRequest
	case errors.As(err, &se):
		if m := se.Message(); m != "" {
			return m
		}
		return MsgGenericError
	default:
		return MsgUnexpectedError
	}
}
