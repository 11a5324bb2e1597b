package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowboardhq/flowboard/internal/domain"
)

type TimeEntryRepo struct {
	pool *pgxpool.Pool
}

func NewTimeEntryRepo(pool *pgxpool.Pool) *TimeEntryRepo {
	return &TimeEntryRepo{pool: pool}
}

func (r *TimeEntryRepo) Create(ctx context.Context, e *domain.TimeEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO time_entries (id, task_id, user_id, minutes, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.TaskID, e.UserID, e.Minutes, e.Note, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("timeEntryRepo.Create: %w", err)
	}

	return nil
}

func (r *TimeEntryRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TimeEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, user_id, minutes, note, created_at
		 FROM time_entries WHERE task_id = $1 ORDER BY created_at`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("timeEntryRepo.ListByTask: %w", err)
	}
	defer rows.Close()

	var entries []*domain.TimeEntry
	for rows.Next() {
		var e domain.TimeEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &e.Minutes, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("timeEntryRepo.ListByTask: scan: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("timeEntryRepo.ListByTask: rows: %w", err)
	}

	return entries, nil
}

func (r *TimeEntryRepo) TotalMinutes(ctx context.Context, taskID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(minutes), 0) FROM time_entries WHERE task_id = $1`,
		taskID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("timeEntryRepo.TotalMinutes: %w", err)
	}

	return total, nil
}
