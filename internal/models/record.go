package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/roastx/internal/shared"
)

// Record is the local log entry for a wrapped record this client created.
// The remote API owns the roast itself; a record only remembers how to find it.
type Record struct {
	id        string
	sequence  int
	remoteID  string
	timeRange TimeRange
	duo       bool
	user2     string
	sessionID string
	createdAt time.Time
	deletedAt *time.Time
}

// NewRecord builds a record for remoteID. The repository assigns id and sequence.
func NewRecord(remoteID string, tr TimeRange, duo bool, user2, sessionID string) *Record {
	if !duo {
		user2 = ""
	}
	return &Record{
		remoteID:  remoteID,
		timeRange: tr,
		duo:       duo,
		user2:     user2,
		sessionID: sessionID,
		createdAt: time.Now().UTC(),
	}
}

func (r *Record) ID() string            { return r.id }
func (r *Record) Sequence() int         { return r.sequence }
func (r *Record) RemoteID() string      { return r.remoteID }
func (r *Record) TimeRange() TimeRange  { return r.timeRange }
func (r *Record) Duo() bool             { return r.duo }
func (r *Record) User2() string         { return r.user2 }
func (r *Record) SessionID() string     { return r.sessionID }
func (r *Record) CreatedAt() time.Time  { return r.createdAt }
func (r *Record) DeletedAt() *time.Time { return r.deletedAt }

// UpdatedAt equals CreatedAt; records are never mutated.
func (r *Record) UpdatedAt() time.Time { return r.createdAt }

func (r *Record) SetID(id string)               { r.id = id }
func (r *Record) SetSequence(n int)             { r.sequence = n }
func (r *Record) SetCreatedAt(t time.Time)      { r.createdAt = t }
func (r *Record) SetDeletedAt(t *time.Time)     { r.deletedAt = t }
func (r *Record) SetSessionID(sessionID string) { r.sessionID = sessionID }

// Validate rejects records without a usable remote id.
func (r *Record) Validate() error {
	if r.remoteID == "" || r.remoteID == PendingRecordID {
		return fmt.Errorf("%w: remote id is required", shared.ErrInvalidInput)
	}
	if !r.timeRange.Valid() {
		return fmt.Errorf("%w: time range %d", shared.ErrInvalidInput, r.timeRange)
	}
	if r.duo && r.user2 == "" {
		return fmt.Errorf("%w: duo record needs a partner", shared.ErrInvalidInput)
	}
	return nil
}

// History converts the record into the shape the history screens use.
func (r *Record) History() HistoryEntry {
	return HistoryEntry{
		ID:        r.remoteID,
		TimeRange: r.timeRange,
		Duo:       r.duo,
		Partner:   r.user2,
		CreatedAt: r.createdAt,
	}
}
