// Package healthlog defines the domain model for health probe history.
// Entries are diagnostics only; routing never reads them.
package healthlog

import (
	"database/sql"
	"time"
)

// Probe result statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusError     = "error"
)

// Entry records the result of a single health probe.
type Entry struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	ServiceName    string    `json:"service_name"`
	CheckedAt      time.Time `json:"checked_at"`
	Status         string    `json:"status"`
	StatusCode     int       `json:"status_code,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
}

// Repository handles persistence of probe history.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new probe history repository with the given database connection.
// A nil db yields a repository that silently drops writes.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a probe result.
func (r *Repository) Create(e *Entry) error {
	if r == nil || r.db == nil {
		return nil
	}

	query := `
		INSERT INTO health_probe_logs (run_id, service_name, checked_at, status, status_code, error_message, response_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var errorMsg *string
	if e.ErrorMessage != "" {
		errorMsg = &e.ErrorMessage
	}

	checkedAt := e.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}

	res, err := r.db.Exec(query, e.RunID, e.ServiceName, checkedAt.UTC().Format(time.RFC3339Nano),
		e.Status, e.StatusCode, errorMsg, e.ResponseTimeMs)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// GetByService retrieves probe history for a service, most recent first.
// The limit parameter controls the maximum number of entries to return.
func (r *Repository) GetByService(serviceName string, limit int) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}

	query := `
		SELECT id, run_id, service_name, checked_at, status, status_code, error_message, response_time_ms
		FROM health_probe_logs
		WHERE service_name = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, serviceName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var checkedAt string
		var errorMsg sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.ServiceName, &checkedAt, &e.Status, &e.StatusCode, &errorMsg, &e.ResponseTimeMs); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, checkedAt); err == nil {
			e.CheckedAt = t
		}
		if errorMsg.Valid {
			e.ErrorMessage = errorMsg.String
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
