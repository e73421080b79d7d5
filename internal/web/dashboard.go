package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/server"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/wizard"
)

type radioOption struct {
	Value   string
	Label   string
	Checked bool
}

type dashboardData struct {
	Username string
	Ranges   []radioOption
	Friend   string
}

func rangeOptions(selected models.TimeRange) []radioOption {
	var out []radioOption
	for _, tr := range models.TimeRanges() {
		out = append(out, radioOption{Value: tr.Value(), Label: tr.String(), Checked: tr == selected})
	}
	return out
}

// handleDashboard checks the remote session before rendering anything.
func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, jar := a.session(r)
	logger := server.LoggerFrom(r.Context())

	ok, err := a.svc.IsAuthenticated(r.Context(), jar)
	if err != nil {
		logger.Warn("auth status check failed", "error", err)
		redirect(w, r, "/")
		return
	}
	if !ok {
		redirect(w, r, a.svc.LoginURL())
		return
	}

	sess.ResetRecord()
	a.renderDashboard(w, r, sess, jar, http.StatusOK, "", "")
}

func (a *App) renderDashboard(w http.ResponseWriter, r *http.Request, sess *models.Session, jar models.CookieJar, status int, friend, popup string) {
	username, err := a.svc.Username(r.Context(), jar)
	if err != nil {
		server.LoggerFrom(r.Context()).Warn("failed to fetch username", "error", err)
	}
	if username == "" {
		username = GuestName
	} else {
		sess.Set(models.KeyUser1, username)
	}

	a.render(w, r, status, "dashboard.html", PageData{
		Title: "Dashboard",
		Popup: popup,
		Data: dashboardData{
			Username: username,
			Ranges:   rangeOptions(sess.TimeRange()),
			Friend:   friend,
		},
	})
}

func (a *App) handleTimeRange(w http.ResponseWriter, r *http.Request) {
	sess, _ := a.session(r)

	tr, err := models.ParseTimeRange(r.FormValue("time_range"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess.SetTimeRange(tr)

	if r.Header.Get("Sec-Fetch-Mode") == "cors" || r.Header.Get("X-Requested-With") != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirect(w, r, "/dashboard")
}

// handleDuo checks the partner exists before creating a duo record.
func (a *App) handleDuo(w http.ResponseWriter, r *http.Request) {
	sess, jar := a.session(r)
	logger := server.LoggerFrom(r.Context())

	friend := strings.TrimSpace(r.FormValue("other_user"))
	if friend == "" {
		a.renderDashboard(w, r, sess, jar, http.StatusOK, "", "")
		return
	}

	exists, err := a.svc.UsernameExists(r.Context(), jar, friend)
	if err != nil {
		logger.Warn("username check failed", "username", friend, "error", err)
		msg := MsgGenericError
		if services.IsTransport(err) {
			msg = MsgUnexpectedError
		}
		a.renderDashboard(w, r, sess, jar, http.StatusBadGateway, friend, msg)
		return
	}
	if !exists {
		a.renderDashboard(w, r, sess, jar, http.StatusOK, friend, MsgUnknownUser)
		return
	}

	sess.SetDuo(friend)
	a.start(w, r, sess, jar)
}

func (a *App) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, jar := a.session(r)

	if v := r.FormValue("time_range"); v != "" {
		tr, err := models.ParseTimeRange(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess.SetTimeRange(tr)
	}

	sess.SetSolo()
	a.start(w, r, sess, jar)
}

// start creates a fresh record and moves to the title slide. A failure is
// logged and the slides that follow stay loading.
func (a *App) start(w http.ResponseWriter, r *http.Request, sess *models.Session, jar models.CookieJar) {
	sess.ResetRecord()
	if _, err := a.wizard.Start(r.Context(), sess, jar); err != nil {
		server.LoggerFrom(r.Context()).Warn("record creation failed", "duo", sess.IsDuo(), "error", err)
	}
	redirect(w, r, wizard.Title.Path())
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.endSession(w, r, "logout", a.svc.Logout)
}

func (a *App) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	a.endSession(w, r, "delete account", a.svc.DeleteAccount)
}

type accountCall func(ctx context.Context, jar models.CookieJar) error

func (a *App) endSession(w http.ResponseWriter, r *http.Request, action string, call accountCall) {
	sess, jar := a.session(r)

	if err := call(r.Context(), jar); err != nil {
		server.LoggerFrom(r.Context()).Error(action+" failed", "status", services.StatusCode(err), "error", err)
		redirect(w, r, "/dashboard")
		return
	}

	sess.Clear()
	redirect(w, r, "/")
}
