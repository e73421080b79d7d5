package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/services"
	"github.com/desertthunder/roastx/internal/shared"
)

// View is everything a slide needs to render.
//
// Loading is true until the slide has data. Exactly one of the payload fields
// is meaningful for a given slide.
type View struct {
	Slide     Slide
	TimeRange models.TimeRange
	Duo       bool
	Partner   string
	RecordID  string
	Loading   bool
	Ranking   models.Ranking
	Genres    models.Genres
	Quirky    models.Quirky
	Summary   models.Summary
}

func (v View) Heading() string     { return v.Slide.Heading() }
func (v View) LoadingText() string { return v.Slide.LoadingText() }
func (v View) Next() Slide         { return v.Slide.Next() }

// Wizard loads slides for one visitor session.
type Wizard struct {
	svc     services.RoastService
	records models.RecordLog
	logger  *log.Logger
}

// New creates a [Wizard] backed by svc.
func New(svc services.RoastService, logger *log.Logger) *Wizard {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Wizard{svc: svc, logger: logger}
}

// WithRecordLog keeps a local copy of every record Start creates.
func (w *Wizard) WithRecordLog(records models.RecordLog) *Wizard {
	w.records = records
	return w
}

// Start refreshes the remote user and creates a record for the time range and
// mode stored in sess. The new id is written to sess only on success, so a
// failure leaves the record pending and the following slides loading.
//
// A session that already holds a created record is left alone.
func (w *Wizard) Start(ctx context.Context, sess *models.Session, jar models.CookieJar) (string, error) {
	if jar == nil {
		jar = sess
	}
	if id, ok := sess.RecordID(); ok {
		return id, nil
	}

	if err := w.svc.UpdateUser(ctx, jar); err != nil {
		return "", fmt.Errorf("failed to refresh user: %w", err)
	}

	tr := sess.TimeRange()
	duo := sess.IsDuo()
	user2, _ := sess.Get(models.KeyUser2)

	var (
		id  string
		err error
	)
	if duo {
		user1, _ := sess.Get(models.KeyUser1)
		id, err = w.svc.CreateDuo(ctx, jar, tr, user1, user2)
	} else {
		id, err = w.svc.CreateWrapped(ctx, jar, tr)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create record: %w", err)
	}

	sess.Set(models.KeyRecordID, id)
	sess.Delete(models.KeyArtistsList)
	sess.Delete(models.KeyTracksList)

	w.logger.Info("record created", "record", id, "time_range", tr.Value(), "duo", duo)
	w.logRecord(models.NewRecord(id, tr, duo, user2, sess.ID()))
	return id, nil
}

func (w *Wizard) logRecord(record *models.Record) {
	if w.records == nil {
		return
	}
	if err := w.records.Create(record); err != nil {
		w.logger.Warn("failed to log record", "record", record.RemoteID(), "error", err)
	}
}

// Load builds the view for slide from sess, calling the remote API for the
// slides that fetch. Fetch failures are logged and leave the view loading.
func (w *Wizard) Load(ctx context.Context, slide Slide, sess *models.Session, jar models.CookieJar) View {
	if jar == nil {
		jar = sess
	}

	partner, _ := sess.Get(models.KeyUser2)
	v := View{Slide: slide, TimeRange: sess.TimeRange(), Duo: sess.IsDuo(), Loading: true}
	if v.Duo {
		v.Partner = partner
	}

	switch slide {
	case Title, Dashboard:
		v.Loading = false
		return v
	case Artists2:
		return w.continuation(v, sess, models.KeyArtistsList)
	case Tracks2:
		return w.continuation(v, sess, models.KeyTracksList)
	}

	id, ok := sess.RecordID()
	if !ok {
		return v
	}
	v.RecordID = id

	var err error
	switch slide {
	case Artists:
		err = w.loadRanking(ctx, &v, sess, jar, models.KeyArtistsList, w.svc.Artists)
	case Tracks:
		err = w.loadRanking(ctx, &v, sess, jar, models.KeyTracksList, w.svc.Tracks)
	case Genres:
		v.Genres, err = w.svc.Genres(ctx, jar, id, v.Duo)
		v.Loading = err != nil || v.Genres.Empty()
	case Quirky:
		v.Quirky, err = w.svc.Quirky(ctx, jar, id, v.Duo)
		v.Loading = err != nil || v.Quirky.Empty()
	case Summary:
		v.Summary, err = w.svc.Summary(ctx, jar, id, v.Duo)
		v.Loading = err != nil || v.Summary.Empty()
	}

	if err != nil {
		w.logFailure(slide, id, err)
	}
	return v
}

type rankingFetch func(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Ranking, error)

// loadRanking shows the first page and leaves the second page in sess under key.
func (w *Wizard) loadRanking(ctx context.Context, v *View, sess *models.Session, jar models.CookieJar, key string, fetch rankingFetch) error {
	r, err := fetch(ctx, jar, v.RecordID, v.Duo)
	if err != nil {
		return err
	}
	if r.Empty() {
		return nil
	}

	v.Ranking = r.Slice(0, PageSize).Renumber(1)
	v.Loading = false
	if err := sess.SetEntries(key, r.Slice(PageSize, 2*PageSize)); err != nil {
		w.logger.Warn("failed to store continuation", "key", key, "error", err)
	}
	return nil
}

// continuation renders the page a previous slide stored under key.
func (w *Wizard) continuation(v View, sess *models.Session, key string) View {
	v.RecordID, _ = sess.RecordID()
	r, ok := sess.Entries(key)
	if !ok || r.Duo() != v.Duo {
		return v
	}
	v.Ranking = r.Renumber(PageSize + 1)
	v.Loading = false
	return v
}

func (w *Wizard) logFailure(slide Slide, id string, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		w.logger.Debug("slide fetch canceled", "slide", slide, "record", id)
	case services.IsTransport(err):
		w.logger.Warn("remote unavailable", "slide", slide, "record", id, "error", err)
	default:
		w.logger.Error("slide fetch failed", "slide", slide, "record", id, "status", services.StatusCode(err), "error", err)
	}
}
