package web

import (
	"net/http"
	"strings"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/server"
	"github.com/desertthunder/roastx/internal/wizard"
)

type historyData struct {
	Loading bool
	Entries []models.HistoryEntry
}

type requestsData struct {
	Loading  bool
	Requests models.DuoRequests
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	_, jar := a.session(r)

	entries, err := a.svc.History(r.Context(), jar)
	data := historyData{Entries: entries}
	if err != nil {
		server.LoggerFrom(r.Context()).Warn("failed to fetch history", "error", err)
		data.Loading = true
	}
	a.render(w, r, http.StatusOK, "history.html", PageData{Title: "Past Roasts", Data: data})
}

// handleReplay loads a past record into the session and starts at its first
// data slide. Duo mode and partner come from the remote history listing.
func (a *App) handleReplay(w http.ResponseWriter, r *http.Request) {
	sess, jar := a.session(r)
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" || id == models.PendingRecordID {
		http.NotFound(w, r)
		return
	}

	entries, err := a.svc.History(r.Context(), jar)
	if err != nil {
		server.LoggerFrom(r.Context()).Warn("failed to fetch history", "record", id, "error", err)
	}

	var found *models.HistoryEntry
	for i := range entries {
		if entries[i].ID == id {
			found = &entries[i]
			break
		}
	}
	if found == nil && err == nil {
		http.NotFound(w, r)
		return
	}

	sess.Set(models.KeyRecordID, id)
	sess.Delete(models.KeyArtistsList)
	sess.Delete(models.KeyTracksList)
	if found != nil {
		sess.SetTimeRange(found.TimeRange)
		if found.Duo {
			sess.SetDuo(found.Partner)
		} else {
			sess.SetSolo()
		}
	}

	redirect(w, r, wizard.Artists.Path())
}

func (a *App) handleRequests(w http.ResponseWriter, r *http.Request) {
	_, jar := a.session(r)

	reqs, err := a.svc.Requests(r.Context(), jar)
	data := requestsData{Requests: reqs}
	if err != nil {
		server.LoggerFrom(r.Context()).Warn("failed to fetch duo requests", "error", err)
		data.Loading = true
	}
	a.render(w, r, http.StatusOK, "requests.html", PageData{Title: "Duo Requests", Data: data})
}
