// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/roastx/internal/models"
)

// Call is one recorded [MockRoast] invocation.
type Call struct {
	Method string
	Args   []string
}

// MockRoast is a test double for services.RoastService.
//
// Errors are keyed by method name. Login and Signup set a sessionid cookie on
// success so handlers can observe cookie merging.
type MockRoast struct {
	mu sync.Mutex

	LoginPage     string
	Authenticated bool
	User          string
	KnownUsers    map[string]bool
	CreatedID     string

	ArtistList  models.Ranking
	TrackList   models.Ranking
	GenreData   models.Genres
	QuirkyData  models.Quirky
	SummaryData models.Summary
	HistoryList []models.HistoryEntry
	RequestData models.DuoRequests

	Errs  map[string]error
	Calls []Call
}

// NewMockRoast returns an authenticated mock that creates record "42".
func NewMockRoast() *MockRoast {
	return &MockRoast{
		LoginPage:     "https://accounts.example.com/authorize",
		Authenticated: true,
		User:          "tester",
		KnownUsers:    map[string]bool{},
		CreatedID:     "42",
		Errs:          map[string]error{},
	}
}

func (m *MockRoast) record(method string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Method: method, Args: args})
	return m.Errs[method]
}

// Called returns the recorded calls to method.
func (m *MockRoast) Called(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockRoast) LoginURL() string { return m.LoginPage }

func (m *MockRoast) CSRF(ctx context.Context, jar models.CookieJar) error {
	if err := m.record("CSRF"); err != nil {
		return err
	}
	jar.SetCookie("csrftoken", "mock-token")
	return nil
}

func (m *MockRoast) IsAuthenticated(ctx context.Context, jar models.CookieJar) (bool, error) {
	if err := m.record("IsAuthenticated"); err != nil {
		return false, err
	}
	return m.Authenticated, nil
}

func (m *MockRoast) Username(ctx context.Context, jar models.CookieJar) (string, error) {
	if err := m.record("Username"); err != nil {
		return "", err
	}
	return m.User, nil
}

func (m *MockRoast) Login(ctx context.Context, jar models.CookieJar, creds models.Credentials) error {
	if err := m.record("Login", creds.Username); err != nil {
		return err
	}
	jar.SetCookie("sessionid", "mock-session")
	return nil
}

func (m *MockRoast) Signup(ctx context.Context, jar models.CookieJar, creds models.Credentials) error {
	if err := m.record("Signup", creds.Username, creds.Email); err != nil {
		return err
	}
	jar.SetCookie("sessionid", "mock-session")
	return nil
}

func (m *MockRoast) Logout(ctx context.Context, jar models.CookieJar) error {
	return m.record("Logout")
}

func (m *MockRoast) DeleteAccount(ctx context.Context, jar models.CookieJar) error {
	return m.record("DeleteAccount")
}

func (m *MockRoast) UsernameExists(ctx context.Context, jar models.CookieJar, username string) (bool, error) {
	if err := m.record("UsernameExists", username); err != nil {
		return false, err
	}
	return m.KnownUsers[username], nil
}

func (m *MockRoast) UpdateUser(ctx context.Context, jar models.CookieJar) error {
	return m.record("UpdateUser")
}

func (m *MockRoast) CreateWrapped(ctx context.Context, jar models.CookieJar, tr models.TimeRange) (string, error) {
	if err := m.record("CreateWrapped", tr.Value()); err != nil {
		return "", err
	}
	return m.CreatedID, nil
}

func (m *MockRoast) CreateDuo(ctx context.Context, jar models.CookieJar, tr models.TimeRange, user1, user2 string) (string, error) {
	if err := m.record("CreateDuo", tr.Value(), user1, user2); err != nil {
		return "", err
	}
	return m.CreatedID, nil
}

func (m *MockRoast) Artists(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Ranking, error) {
	if err := m.record("Artists", id, strconv.FormatBool(duo)); err != nil {
		return models.Ranking{}, err
	}
	return m.ArtistList, nil
}

func (m *MockRoast) Tracks(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Ranking, error) {
	if err := m.record("Tracks", id, strconv.FormatBool(duo)); err != nil {
		return models.Ranking{}, err
	}
	return m.TrackList, nil
}

func (m *MockRoast) Genres(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Genres, error) {
	if err := m.record("Genres", id, strconv.FormatBool(duo)); err != nil {
		return models.Genres{}, err
	}
	return m.GenreData, nil
}

func (m *MockRoast) Quirky(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Quirky, error) {
	if err := m.record("Quirky", id, strconv.FormatBool(duo)); err != nil {
		return models.Quirky{}, err
	}
	return m.QuirkyData, nil
}

func (m *MockRoast) Summary(ctx context.Context, jar models.CookieJar, id string, duo bool) (models.Summary, error) {
	if err := m.record("Summary", id, strconv.FormatBool(duo)); err != nil {
		return models.Summary{}, err
	}
	return m.SummaryData, nil
}

func (m *MockRoast) History(ctx context.Context, jar models.CookieJar) ([]models.HistoryEntry, error) {
	if err := m.record("History"); err != nil {
		return nil, err
	}
	return m.HistoryList, nil
}

func (m *MockRoast) Requests(ctx context.Context, jar models.CookieJar) (models.DuoRequests, error) {
	if err := m.record("Requests"); err != nil {
		return models.DuoRequests{}, err
	}
	return m.RequestData, nil
}

// SoloArtists returns n ranked solo entries named "Artist 1".."Artist n".
func SoloArtists(n int) models.Ranking {
	var r models.Ranking
	for i := 1; i <= n; i++ {
		r.Entries = append(r.Entries, models.Entry{Rank: i, Name: "Artist " + strconv.Itoa(i), Desc: "desc " + strconv.Itoa(i)})
	}
	return r
}

// DuoArtists returns n comparisons with left names "Left 1".. and right names "Right 1"..
func DuoArtists(n int) models.Ranking {
	var r models.Ranking
	for i := 1; i <= n; i++ {
		r.Comparisons = append(r.Comparisons, models.Comparison{
			Rank:  i,
			Left:  models.Side{Name: "Left " + strconv.Itoa(i)},
			Right: models.Side{Name: "Right " + strconv.Itoa(i)},
			Desc:  "both " + strconv.Itoa(i),
		})
	}
	return r
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
