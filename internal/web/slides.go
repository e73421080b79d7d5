package web

import (
	"html/template"
	"net/http"

	"github.com/desertthunder/roastx/internal/formatter"
	"github.com/desertthunder/roastx/internal/server"
	"github.com/desertthunder/roastx/internal/wizard"
)

type slidePage struct {
	Kind      string
	View      wizard.View
	Narrative template.HTML
}

func slideKind(s wizard.Slide) string {
	switch s {
	case wizard.Title:
		return "title"
	case wizard.Artists, wizard.Artists2, wizard.Tracks, wizard.Tracks2:
		return "ranking"
	case wizard.Genres:
		return "genres"
	case wizard.Quirky:
		return "quirky"
	default:
		return "summary"
	}
}

func (a *App) handleSlide(w http.ResponseWriter, r *http.Request) {
	slide, err := wizard.ParseSlide(r.PathValue("slide"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sess, jar := a.session(r)
	view := a.wizard.Load(r.Context(), slide, sess, jar)

	page := slidePage{Kind: slideKind(slide), View: view}
	if slide == wizard.Summary && !view.Loading && view.Summary.Narrative != "" {
		narrative, err := renderMarkdown(view.Summary.Narrative)
		if err != nil {
			server.LoggerFrom(r.Context()).Warn("failed to render narrative", "record", view.RecordID, "error", err)
		}
		page.Narrative = narrative
	}

	a.render(w, r, http.StatusOK, "slide.html", PageData{Title: view.Heading(), Data: page})
}

// handleNext is the advance affordance: it answers 303 with the next slide.
func (a *App) handleNext(w http.ResponseWriter, r *http.Request) {
	slide, err := wizard.ParseSlide(r.PathValue("slide"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	redirect(w, r, slide.Next().Path())
}

// handleSummaryMarkdown serves the summary slide as a markdown download.
func (a *App) handleSummaryMarkdown(w http.ResponseWriter, r *http.Request) {
	sess, jar := a.session(r)
	view := a.wizard.Load(r.Context(), wizard.Summary, sess, jar)
	if view.Loading {
		http.Error(w, view.LoadingText(), http.StatusNotFound)
		return
	}

	data := formatter.SummaryMarkdown(view.Summary, view.TimeRange, view.Partner)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="roast-summary.md"`)
	if _, err := w.Write(data); err != nil {
		server.LoggerFrom(r.Context()).Error("failed to write summary download", "error", err)
	}
}
