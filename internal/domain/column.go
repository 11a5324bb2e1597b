package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Column is one vertical lane on a project board.
type Column struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	TaskLimit int       `json:"task_limit,omitempty"` // 0 = unlimited (WIP limit)
	CreatedAt time.Time `json:"created_at"`
}

type ColumnRepository interface {
	Create(ctx context.Context, c *Column) error
	GetByID(ctx context.Context, id uuid.UUID) (*Column, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Column, error)
	Update(ctx context.Context, c *Column) error
	Delete(ctx context.Context, id uuid.UUID) error
}
