// Package repository provides data access for session records.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/termhost/backend/internal/model"
)

// SessionRepository persists terminal session lifecycle records.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session record.
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (id, shell, workdir, cols, rows, status, pid, recording_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.Shell,
		session.Workdir,
		session.Cols,
		session.Rows,
		session.Status,
		session.PID,
		session.RecordingPath,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session record: %w", err)
	}
	return nil
}

// GetByID retrieves a session record by id.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	query := `
		SELECT id, shell, workdir, cols, rows, status, exit_code, signal, pid, recording_path, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	session := &model.Session{}
	var exitCode, pid sql.NullInt64
	var signal, recordingPath sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.Shell,
		&session.Workdir,
		&session.Cols,
		&session.Rows,
		&session.Status,
		&exitCode,
		&signal,
		&pid,
		&recordingPath,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session record: %w", err)
	}

	if exitCode.Valid {
		code := int(exitCode.Int64)
		session.ExitCode = &code
	}
	if signal.Valid {
		session.Signal = signal.String
	}
	if pid.Valid {
		p := int(pid.Int64)
		session.PID = &p
	}
	if recordingPath.Valid {
		session.RecordingPath = recordingPath.String
	}

	return session, nil
}

// List retrieves all session records, newest first.
func (r *SessionRepository) List(ctx context.Context) ([]*model.Session, error) {
	query := `
		SELECT id, shell, workdir, cols, rows, status, exit_code, signal, pid, recording_path, created_at, updated_at
		FROM sessions
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list session records: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session := &model.Session{}
		var exitCode, pid sql.NullInt64
		var signal, recordingPath sql.NullString

		err := rows.Scan(
			&session.ID,
			&session.Shell,
			&session.Workdir,
			&session.Cols,
			&session.Rows,
			&session.Status,
			&exitCode,
			&signal,
			&pid,
			&recordingPath,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}

		if exitCode.Valid {
			code := int(exitCode.Int64)
			session.ExitCode = &code
		}
		if signal.Valid {
			session.Signal = signal.String
		}
		if pid.Valid {
			p := int(pid.Int64)
			session.PID = &p
		}
		if recordingPath.Valid {
			session.RecordingPath = recordingPath.String
		}

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session records: %w", err)
	}
	return sessions, nil
}

// UpdateExit marks a session record as exited with its exit code and, when
// the process died on a signal, the signal name.
func (r *SessionRepository) UpdateExit(ctx context.Context, id string, exitCode int, signal string) error {
	query := `
		UPDATE sessions
		SET status = ?, exit_code = ?, signal = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, model.SessionStatusExited, exitCode, nullString(signal), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update session exit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session record.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
