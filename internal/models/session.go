package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/desertthunder/roastx/internal/shared"
)

// Session keys shared by every wizard step.
const (
	KeyRecordID    = "id"
	KeyTimeRange   = "timeRange"
	KeyIsDuo       = "isDuo"
	KeyUser1       = "user1"
	KeyUser2       = "user2"
	KeyArtistsList = "artistsList"
	KeyTracksList  = "tracksList"
)

// PendingRecordID marks a record that was requested but not created yet.
const PendingRecordID = "-1"

// Session is the per-visitor key-value store carried between wizard steps,
// plus the cookies the remote API has handed this visitor.
//
// Values use the same keys a browser client would keep in local storage.
// Cookies hold the remote session and csrftoken.
type Session struct {
	mu        sync.RWMutex
	id        string
	values    map[string]string
	cookies   map[string]string
	createdAt time.Time
	updatedAt time.Time
	expiresAt time.Time
	dirty     bool
}

// NewSession creates an empty session with a fresh id that expires after ttl.
func NewSession(ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		id:        shared.GenerateID(),
		values:    map[string]string{},
		cookies:   map[string]string{},
		createdAt: now,
		updatedAt: now,
		expiresAt: now.Add(ttl),
		dirty:     true,
	}
}

// NewNamedSession creates a session with a caller-chosen id, used for the CLI session.
func NewNamedSession(id string, ttl time.Duration) *Session {
	s := NewSession(ttl)
	s.id = id
	return s
}

// RestoreSession rebuilds a persisted session. The result is clean.
func RestoreSession(id string, values, cookies map[string]string, createdAt, updatedAt, expiresAt time.Time) *Session {
	if values == nil {
		values = map[string]string{}
	}
	if cookies == nil {
		cookies = map[string]string{}
	}
	return &Session{
		id:        id,
		values:    values,
		cookies:   cookies,
		createdAt: createdAt,
		updatedAt: updatedAt,
		expiresAt: expiresAt,
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Validate checks the session has an id and a sane lifetime.
func (s *Session) Validate() error {
	if s.id == "" {
		return fmt.Errorf("%w: session id is required", shared.ErrInvalidInput)
	}
	if !s.expiresAt.After(s.createdAt) {
		return fmt.Errorf("%w: session expires before it was created", shared.ErrInvalidInput)
	}
	return nil
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !now.Before(s.expiresAt)
}

// Touch pushes the expiry ttl into the future.
func (s *Session) Touch(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().UTC().Add(ttl)
	s.markLocked()
}

// Get returns the value stored under key. Missing keys are normal on a first visit.
func (s *Session) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.markLocked()
}

// Delete removes key.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.markLocked()
}

// Values returns a copy of every stored value.
func (s *Session) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Cookie returns the remote API cookie called name, or "".
func (s *Session) Cookie(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cookies[name]
}

// SetCookie records a cookie issued by the remote API. An empty value deletes it.
func (s *Session) SetCookie(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		if _, ok := s.cookies[name]; ok {
			delete(s.cookies, name)
			s.markLocked()
		}
		return
	}
	if cur, ok := s.cookies[name]; ok && cur == value {
		return
	}
	s.cookies[name] = value
	s.markLocked()
}

// Cookies returns a copy of the remote API cookies.
func (s *Session) Cookies() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.cookies)
}

// Clear drops every value and cookie, as on logout.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	s.cookies = map[string]string{}
	s.markLocked()
}

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkClean resets the dirty flag after a save.
func (s *Session) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

func (s *Session) markLocked() {
	s.dirty = true
	s.updatedAt = time.Now().UTC()
}

// RecordID returns the active wrapped record id. ok is false while the record
// is missing or still pending.
func (s *Session) RecordID() (id string, ok bool) {
	id, _ = s.Get(KeyRecordID)
	if id == "" || id == PendingRecordID {
		return "", false
	}
	return id, true
}

// ResetRecord marks the active record as pending.
func (s *Session) ResetRecord() {
	s.Set(KeyRecordID, PendingRecordID)
}

// TimeRange returns the selected time range, defaulting to [DefaultTimeRange].
func (s *Session) TimeRange() TimeRange {
	v, ok := s.Get(KeyTimeRange)
	if !ok {
		return DefaultTimeRange
	}
	tr, err := ParseTimeRange(v)
	if err != nil {
		return DefaultTimeRange
	}
	return tr
}

// SetTimeRange persists tr under [KeyTimeRange].
func (s *Session) SetTimeRange(tr TimeRange) {
	s.Set(KeyTimeRange, tr.Value())
}

// IsDuo reports whether the active record compares two users.
func (s *Session) IsDuo() bool {
	v, _ := s.Get(KeyIsDuo)
	return v == "1"
}

// SetSolo selects a single-user roast.
func (s *Session) SetSolo() {
	s.Set(KeyIsDuo, "0")
	s.Delete(KeyUser2)
}

// SetDuo selects a comparison with partner.
func (s *Session) SetDuo(partner string) {
	s.Set(KeyIsDuo, "1")
	s.Set(KeyUser2, partner)
}

// SetEntries stores a JSON encoded continuation list under key.
func (s *Session) SetEntries(key string, r Ranking) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	s.Set(key, string(data))
	return nil
}

// Entries reads a continuation list written by [Session.SetEntries].
// ok is false when nothing was stored or the value does not decode.
func (s *Session) Entries(key string) (Ranking, bool) {
	v, found := s.Get(key)
	if !found || v == "" {
		return Ranking{}, false
	}
	var r Ranking
	if err := json.Unmarshal([]byte(v), &r); err != nil {
		return Ranking{}, false
	}
	return r, !r.Empty()
}
