package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
)

// RecordRepository implements [models.RecordLog] on the records table.
//
// Records are never updated. Delete is a soft delete.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new [RecordRepository] with the given database connection
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = "id, sequence, remote_id, time_range, duo, user2, session_id, created_at, deleted_at"

// Create inserts a record with a generated ID and sequence
func (r *RecordRepository) Create(record *models.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "records")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO records (id, sequence, remote_id, time_range, duo, user2, session_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		record.RemoteID(),
		int(record.TimeRange()),
		record.Duo(),
		record.User2(),
		record.SessionID(),
		record.CreatedAt().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

// Get retrieves a record by local ID, excluding soft-deleted records
func (r *RecordRepository) Get(id string) (*models.Record, error) {
	query := "SELECT " + recordColumns + " FROM records WHERE id = ? AND deleted_at IS NULL"

	record, err := scanRecord(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	return record, nil
}

// FindByRemoteID returns the newest live record for a remote wrapped id
func (r *RecordRepository) FindByRemoteID(remoteID string) (*models.Record, error) {
	query := "SELECT " + recordColumns + ` FROM records
		WHERE remote_id = ? AND deleted_at IS NULL
		ORDER BY sequence DESC LIMIT 1`

	record, err := scanRecord(r.db.QueryRow(query, remoteID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: remote id %s", shared.ErrRecordNotFound, remoteID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	return record, nil
}

// Update always fails; records are never mutated.
func (r *RecordRepository) Update(record *models.Record) error {
	return fmt.Errorf("%w: records are immutable", shared.ErrNotImplemented)
}

// Delete soft-deletes a record by ID
func (r *RecordRepository) Delete(id string) error {
	query := `
		UPDATE records
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRecordNotFound, id)
	}
	return nil
}

// List retrieves live records in sequence order.
//
// Criteria: "session_id" (string), "duo" (bool), "time_range" ([models.TimeRange]),
// "limit" (int, keeps the newest n).
func (r *RecordRepository) List(criteria map[string]any) ([]*models.Record, error) {
	query := "SELECT " + recordColumns + " FROM records WHERE deleted_at IS NULL"

	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	if duo, ok := criteria["duo"].(bool); ok {
		query += " AND duo = ?"
		args = append(args, duo)
	}

	if tr, ok := criteria["time_range"].(models.TimeRange); ok {
		query += " AND time_range = ?"
		args = append(args, int(tr))
	}

	limit, _ := criteria["limit"].(int)
	if limit > 0 {
		query += " ORDER BY sequence DESC LIMIT ?"
		args = append(args, limit)
	} else {
		query += " ORDER BY sequence ASC"
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if limit > 0 {
		slices.Reverse(records)
	}
	return records, nil
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		id        string
		sequence  int
		remoteID  string
		timeRange int
		duo       bool
		user2     string
		sessionID string
		createdAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &remoteID, &timeRange, &duo, &user2, &sessionID, &createdAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	record := models.NewRecord(remoteID, models.TimeRange(timeRange), duo, user2, sessionID)
	record.SetID(id)
	record.SetSequence(sequence)
	record.SetCreatedAt(createdAt)
	if deletedAt.Valid {
		record.SetDeletedAt(&deletedAt.Time)
	}
	return record, nil
}
