// package services defines interface RoastService for the remote roast API
package services

import (
	"context"

	"github.com/desertthunder/roastx/internal/models"
)

// Display categories appended to the display path.
const (
	CategoryArtists = "artists"
	CategoryTracks  = "tracks"
	CategoryGenres  = "genres"
	CategoryQuirky  = "quirky"
	CategorySummary = "summary"
)

// RoastService is everything the wizard, dashboard and account screens need
// from the remote API. Every call carries the visitor's cookies via jar and
// writes any cookies the remote sets back into it.
type RoastService interface {
	// LoginURL is where unauthenticated visitors are sent.
	LoginURL() string

	// CSRF asks the remote to set its csrftoken cookie.
	CSRF(ctx context.Context, jar models.CookieJar) error

	// IsAuthenticated reports the remote session status.
	IsAuthenticated(ctx context.Context, jar models.CookieJar) (bool, error)

	// Username returns the logged in user's name.
	Username(ctx context.Context, jar models.CookieJar) (string, error)

	Login(ctx context.Context, jar models.CookieJar, creds models.Credentials) error
	Signup(ctx context.Context, jar models.CookieJar, creds models.Credentials) error
	Logout(ctx context.Context, jar models.CookieJar) error
	DeleteAccount(ctx context.Context, jar models.CookieJar) error

	// UsernameExists checks a duo partner before a duo record is requested.
	UsernameExists(ctx context.Context, jar models.CookieJar, username string) (bool, error)

	// UpdateUser refreshes the remote copy of the user's streaming data.
	UpdateUser(ctx context.Context, jar models.CookieJar) error

	// CreateWrapped and CreateDuo return the new record id.
	CreateWrapped(ctx context.Context, jar models.CookieJar, tr models.TimeRange) (string, error)
	CreateDuo(ctx context.Context, jar models.CookieJar, tr models.TimeRange, user1, user2 string) (string, error)

	Artists(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Ranking, error)
	Tracks(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Ranking, error)
	Genres(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Genres, error)
	Quirky(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Quirky, error)
	Summary(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Summary, error)

	History(ctx context.Context, jar models.CookieJar) ([]models.HistoryEntry, error)
	Requests(ctx context.Context, jar models.CookieJar) (models.DuoRequests, error)
}

// FetchRoast loads every slide of one record, for export.
func FetchRoast(ctx context.Context, svc RoastService, jar models.CookieJar, id string, tr models.TimeRange, duo bool, partner string) (*models.Roast, error) {
	roast := &models.Roast{RecordID: id, TimeRange: tr, Duo: duo, Partner: partner}

	var err error
	if roast.Artists, err = svc.Artists(ctx, jar, id, duo); err != nil {
		return nil, err
	}
	if roast.Tracks, err = svc.Tracks(ctx, jar, id, duo); err != nil {
		return nil, err
	}
	if roast.Genres, err = svc.Genres(ctx, jar, id, duo); err != nil {
		return nil, err
	}
	if roast.Quirky, err = svc.Quirky(ctx, jar, id, duo); err != nil {
		return nil, err
	}
	if roast.Summary, err = svc.Summary(ctx, jar, id, duo); err != nil {
		return nil, err
	}
	return roast, nil
}
