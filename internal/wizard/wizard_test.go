package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/repositories"
	"github.com/desertthunder/roastx/internal/shared"
	tu "github.com/desertthunder/roastx/internal/testing"
)

func newSession(values map[string]string) *models.Session {
	s := models.NewSession(time.Hour)
	for k, v := range values {
		s.Set(k, v)
	}
	return s
}

func TestSlide(t *testing.T) {
	t.Run("Next visits every slide then the dashboard", func(t *testing.T) {
		var got []Slide
		for s := Title; s != Dashboard; s = s.Next() {
			got = append(got, s)
			if len(got) > 20 {
				t.Fatal("Next does not terminate")
			}
		}
		want := Slides()
		if len(got) != len(want) {
			t.Fatalf("visited %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("step %d = %v, want %v", i, got[i], want[i])
			}
		}
		if Summary.Next() != Dashboard || Dashboard.Next() != Dashboard {
			t.Error("Summary and Dashboard should lead to the dashboard")
		}
	})

	t.Run("Path and ParseSlide agree", func(t *testing.T) {
		for _, s := range Slides() {
			parsed, err := ParseSlide(s.String())
			if err != nil || parsed != s {
				t.Errorf("ParseSlide(%q) = %v, %v", s, parsed, err)
			}
			if s.NextPath() != s.Path()+"/next" {
				t.Errorf("NextPath() = %q", s.NextPath())
			}
		}
		if Artists2.Path() != "/wrapped/artists2" || Dashboard.Path() != "/dashboard" {
			t.Errorf("unexpected paths %q %q", Artists2.Path(), Dashboard.Path())
		}
	})

	t.Run("ParseSlide rejects unknown names", func(t *testing.T) {
		for _, name := range []string{"", "dashboard", "artists3"} {
			if _, err := ParseSlide(name); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("ParseSlide(%q) error = %v", name, err)
			}
		}
	})

	t.Run("loading text", func(t *testing.T) {
		tc := map[Slide]string{
			Artists:  "Loading artists...",
			Artists2: "Loading artists...",
			Tracks:   "Loading tracks...",
			Tracks2:  "Loading tracks...",
			Summary:  "Loading summary...",
		}
		for s, want := range tc {
			if got := s.LoadingText(); got != want {
				t.Errorf("%v.LoadingText() = %q, want %q", s, got, want)
			}
		}
		if Title.Heading() != "turning up the heat..." {
			t.Errorf("Title.Heading() = %q", Title.Heading())
		}
	})
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("solo creates with stored range", func(t *testing.T) {
		mock := tu.NewMockRoast()
		sess := newSession(map[string]string{
			models.KeyRecordID:    models.PendingRecordID,
			models.KeyTimeRange:   "0",
			models.KeyArtistsList: `{"entries":[{"rank":3,"name":"stale"}]}`,
		})

		id, err := New(mock, nil).Start(ctx, sess, nil)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if id != "42" {
			t.Errorf("id = %q", id)
		}
		if got, _ := sess.RecordID(); got != "42" {
			t.Errorf("session id = %q", got)
		}
		if _, ok := sess.Entries(models.KeyArtistsList); ok {
			t.Error("stale continuation should be cleared")
		}
		calls := mock.Called("CreateWrapped")
		if len(calls) != 1 || calls[0].Args[0] != "0" {
			t.Errorf("CreateWrapped calls = %v", calls)
		}
		if len(mock.Called("UpdateUser")) != 1 {
			t.Error("expected UpdateUser before creation")
		}
	})

	t.Run("duo passes both users", func(t *testing.T) {
		mock := tu.NewMockRoast()
		sess := newSession(map[string]string{models.KeyUser1: "me"})
		sess.SetDuo("sam")

		if _, err := New(mock, nil).Start(ctx, sess, nil); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		calls := mock.Called("CreateDuo")
		if len(calls) != 1 {
			t.Fatalf("CreateDuo calls = %v", calls)
		}
		if args := calls[0].Args; args[0] != "2" || args[1] != "me" || args[2] != "sam" {
			t.Errorf("CreateDuo args = %v", args)
		}
		if len(mock.Called("CreateWrapped")) != 0 {
			t.Error("solo creation should not run for a duo")
		}
	})

	t.Run("failure leaves the record pending", func(t *testing.T) {
		for _, method := range []string{"UpdateUser", "CreateWrapped"} {
			t.Run(method, func(t *testing.T) {
				mock := tu.NewMockRoast()
				mock.Errs[method] = fmt.Errorf("%w: down", shared.ErrServiceUnavailable)
				sess := newSession(map[string]string{models.KeyRecordID: models.PendingRecordID})

				if _, err := New(mock, nil).Start(ctx, sess, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
					t.Errorf("Start() error = %v", err)
				}
				if v, _ := sess.Get(models.KeyRecordID); v != models.PendingRecordID {
					t.Errorf("id = %q, want pending", v)
				}
			})
		}
	})

	t.Run("existing record is kept", func(t *testing.T) {
		mock := tu.NewMockRoast()
		sess := newSession(map[string]string{models.KeyRecordID: "7"})

		id, err := New(mock, nil).Start(ctx, sess, nil)
		if err != nil || id != "7" {
			t.Errorf("Start() = %q, %v", id, err)
		}
		if len(mock.Calls) != 0 {
			t.Errorf("expected no remote calls, got %v", mock.Calls)
		}
	})

	t.Run("logs the record locally", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase() error = %v", err)
		}
		defer db.Close()
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations() error = %v", err)
		}
		records := repositories.NewRecordRepository(db)

		sess := newSession(nil)
		if _, err := New(tu.NewMockRoast(), nil).WithRecordLog(records).Start(ctx, sess, nil); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		record, err := records.FindByRemoteID("42")
		if err != nil {
			t.Fatalf("FindByRemoteID() error = %v", err)
		}
		if record.SessionID() != sess.ID() || record.Duo() {
			t.Errorf("unexpected record %+v", record)
		}
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("pending record stays loading without calls", func(t *testing.T) {
		for _, id := range []string{"", models.PendingRecordID} {
			mock := tu.NewMockRoast()
			sess := newSession(nil)
			if id != "" {
				sess.Set(models.KeyRecordID, id)
			}

			for _, slide := range []Slide{Artists, Genres, Tracks, Quirky, Summary} {
				if v := New(mock, nil).Load(ctx, slide, sess, nil); !v.Loading {
					t.Errorf("%v should be loading for id %q", slide, id)
				}
			}
			if len(mock.Calls) != 0 {
				t.Errorf("expected no remote calls, got %v", mock.Calls)
			}
		}
	})

	t.Run("artists pages through the continuation", func(t *testing.T) {
		mock := tu.NewMockRoast()
		mock.ArtistList = tu.SoloArtists(5)
		sess := newSession(map[string]string{models.KeyRecordID: "9", models.KeyIsDuo: "0"})
		w := New(mock, nil)

		first := w.Load(ctx, Artists, sess, nil)
		if first.Loading {
			t.Fatal("artists should have loaded")
		}
		if first.Ranking.Len() != 2 || first.Ranking.Entries[0].Rank != 1 || first.Ranking.Entries[1].Name != "Artist 2" {
			t.Errorf("first page = %+v", first.Ranking)
		}
		calls := mock.Called("Artists")
		if len(calls) != 1 || calls[0].Args[0] != "9" || calls[0].Args[1] != "false" {
			t.Errorf("Artists calls = %v", calls)
		}

		second := w.Load(ctx, Artists2, sess, nil)
		if second.Loading || second.Ranking.Len() != 2 {
			t.Fatalf("second page = %+v", second)
		}
		if e := second.Ranking.Entries; e[0].Rank != 3 || e[0].Name != "Artist 3" || e[1].Rank != 4 {
			t.Errorf("second page entries = %+v", e)
		}
		if len(mock.Called("Artists")) != 1 {
			t.Error("second page should not call the remote API")
		}
	})

	t.Run("duo uses comparisons only", func(t *testing.T) {
		mock := tu.NewMockRoast()
		mock.TrackList = tu.DuoArtists(4)
		sess := newSession(map[string]string{models.KeyRecordID: "3", models.KeyUser1: "me"})
		sess.SetDuo("sam")
		w := New(mock, nil)

		v := w.Load(ctx, Tracks, sess, nil)
		if !v.Duo || v.Partner != "sam" || len(v.Ranking.Entries) != 0 || len(v.Ranking.Comparisons) != 2 {
			t.Errorf("unexpected view %+v", v)
		}
		if calls := mock.Called("Tracks"); calls[0].Args[1] != "true" {
			t.Errorf("Tracks isDuo = %v", calls[0].Args)
		}

		v2 := w.Load(ctx, Tracks2, sess, nil)
		if v2.Loading || v2.Ranking.Comparisons[0].Rank != 3 || v2.Ranking.Comparisons[1].Left.Name != "Left 4" {
			t.Errorf("unexpected second page %+v", v2.Ranking)
		}
	})

	t.Run("continuation in the other mode is not shown", func(t *testing.T) {
		sess := newSession(nil)
		if err := sess.SetEntries(models.KeyArtistsList, tu.SoloArtists(2)); err != nil {
			t.Fatal(err)
		}
		sess.SetDuo("sam")
		if v := New(tu.NewMockRoast(), nil).Load(ctx, Artists2, sess, nil); !v.Loading {
			t.Error("solo continuation should not render in duo mode")
		}
	})

	t.Run("missing continuation stays loading", func(t *testing.T) {
		sess := newSession(map[string]string{models.KeyTracksList: "not json"})
		if v := New(tu.NewMockRoast(), nil).Load(ctx, Tracks2, sess, nil); !v.Loading {
			t.Error("undecodable continuation should stay loading")
		}
	})

	t.Run("fetch failure stays loading", func(t *testing.T) {
		tc := []error{
			fmt.Errorf("%w: refused", shared.ErrServiceUnavailable),
			fmt.Errorf("%w: 500", shared.ErrAPIRequest),
			context.Canceled,
		}
		for _, e := range tc {
			mock := tu.NewMockRoast()
			mock.Errs["Genres"] = e
			mock.GenreData = models.Genres{Genres: []string{"pop"}}
			sess := newSession(map[string]string{models.KeyRecordID: "1"})

			if v := New(mock, nil).Load(ctx, Genres, sess, nil); !v.Loading {
				t.Errorf("error %v should leave the slide loading", e)
			}
		}
	})

	t.Run("genres quirky and summary", func(t *testing.T) {
		mock := tu.NewMockRoast()
		mock.GenreData = models.Genres{Genres: []string{"pop"}, Desc: "basic"}
		mock.QuirkyData = models.Quirky{Desc: "polka"}
		mock.SummaryData = models.Summary{Narrative: "# done"}
		sess := newSession(map[string]string{models.KeyRecordID: "1"})
		w := New(mock, nil)

		if v := w.Load(ctx, Genres, sess, nil); v.Loading || v.Genres.Desc != "basic" {
			t.Errorf("genres view = %+v", v)
		}
		if v := w.Load(ctx, Quirky, sess, nil); v.Loading || v.Quirky.Desc != "polka" {
			t.Errorf("quirky view = %+v", v)
		}
		if v := w.Load(ctx, Summary, sess, nil); v.Loading || v.Summary.Narrative != "# done" {
			t.Errorf("summary view = %+v", v)
		}
	})

	t.Run("empty payload stays loading", func(t *testing.T) {
		sess := newSession(map[string]string{models.KeyRecordID: "1"})
		if v := New(tu.NewMockRoast(), nil).Load(ctx, Summary, sess, nil); !v.Loading {
			t.Error("empty summary should stay loading")
		}

		mock := tu.NewMockRoast()
		mock.SummaryData = models.Summary{Partner: &models.Summary{}}
		duo := newSession(map[string]string{models.KeyRecordID: "1", models.KeyIsDuo: "1", models.KeyUser2: "pal"})
		if v := New(mock, nil).Load(ctx, Summary, duo, nil); !v.Loading {
			t.Errorf("empty duo summary should stay loading, got %+v", v.Summary)
		}
	})

	t.Run("title never loads", func(t *testing.T) {
		v := New(tu.NewMockRoast(), nil).Load(ctx, Title, newSession(nil), nil)
		if v.Loading || v.TimeRange != models.DefaultTimeRange {
			t.Errorf("title view = %+v", v)
		}
	})
}
