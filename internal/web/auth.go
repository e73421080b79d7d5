package web

import (
	"net/http"
	"strings"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/server"
	"github.com/desertthunder/roastx/internal/services"
)

type landingData struct {
	LoginURL string
}

type loginForm struct {
	Username string
}

type signupForm struct {
	Username string
	Email    string
}

func joinMessages(msgs []string) string {
	return strings.Join(msgs, " ")
}

func (a *App) handleLanding(w http.ResponseWriter, r *http.Request) {
	_, jar := a.session(r)

	ok, err := a.svc.IsAuthenticated(r.Context(), jar)
	if err != nil {
		server.LoggerFrom(r.Context()).Warn("auth status check failed", "error", err)
	}
	if ok {
		redirect(w, r, "/dashboard")
		return
	}
	a.render(w, r, http.StatusOK, "landing.html", PageData{Data: landingData{LoginURL: a.svc.LoginURL()}})
}

// csrf asks the remote API for its token cookie before a form is shown.
func (a *App) csrf(r *http.Request, jar models.CookieJar) {
	if err := a.svc.CSRF(r.Context(), jar); err != nil {
		server.LoggerFrom(r.Context()).Warn("failed to fetch csrf token", "error", err)
	}
}

func (a *App) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	_, jar := a.session(r)
	a.csrf(r, jar)
	a.render(w, r, http.StatusOK, "login.html", PageData{Title: "Log in", Data: loginForm{}})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	_, jar := a.session(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	creds := models.Credentials{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}

	err := a.svc.Login(r.Context(), jar, creds)
	if err == nil {
		redirect(w, r, "/dashboard")
		return
	}

	server.LoggerFrom(r.Context()).Warn("login failed", "username", creds.Username, "status", services.StatusCode(err), "error", err)
	a.render(w, r, formStatus(err), "login.html", PageData{
		Title: "Log in",
		Popup: formMessage(err, MsgLoginFailed),
		Data:  loginForm{Username: creds.Username},
	})
}

func (a *App) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	_, jar := a.session(r)
	a.csrf(r, jar)
	a.render(w, r, http.StatusOK, "signup.html", PageData{Title: "Sign up", Data: signupForm{}})
}

func (a *App) handleSignup(w http.ResponseWriter, r *http.Request) {
	_, jar := a.session(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	creds := models.Credentials{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password1"),
		Confirm:  r.PostForm.Get("password2"),
	}

	err := a.svc.Signup(r.Context(), jar, creds)
	if err == nil {
		redirect(w, r, "/dashboard")
		return
	}

	server.LoggerFrom(r.Context()).Warn("signup failed", "username", creds.Username, "status", services.StatusCode(err), "error", err)
	a.render(w, r, formStatus(err), "signup.html", PageData{
		Title: "Sign up",
		Popup: formMessage(err, MsgSignupFailed),
		Data:  signupForm{Username: creds.Username, Email: creds.Email},
	})
}

// formStatus is the status a re-rendered form is served with.
func formStatus(err error) int {
	if services.IsBadRequest(err) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
