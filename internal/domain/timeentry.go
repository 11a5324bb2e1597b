package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TimeEntry records time a user spent on one task.
type TimeEntry struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Minutes   int       `json:"minutes"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type TimeEntryRepository interface {
	Create(ctx context.Context, e *TimeEntry) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*TimeEntry, error)
	TotalMinutes(ctx context.Context, taskID uuid.UUID) (int, error)
}
