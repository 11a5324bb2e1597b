package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowboardhq/flowboard/internal/domain"
)

type ColumnRepo struct {
	pool *pgxpool.Pool
}

func NewColumnRepo(pool *pgxpool.Pool) *ColumnRepo {
	return &ColumnRepo{pool: pool}
}

func (r *ColumnRepo) Create(ctx context.Context, c *domain.Column) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO columns (id, project_id, title, position, task_limit, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ProjectID, c.Title, c.Position, c.TaskLimit, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("columnRepo.Create: %w", err)
	}

	return nil
}

func (r *ColumnRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	var c domain.Column

	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, title, position, task_limit, created_at
		 FROM columns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ProjectID, &c.Title, &c.Position, &c.TaskLimit, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("columnRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("columnRepo.GetByID: %w", err)
	}

	return &c, nil
}

func (r *ColumnRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Column, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, project_id, title, position, task_limit, created_at
		 FROM columns WHERE project_id = $1 ORDER BY position`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("columnRepo.ListByProject: %w", err)
	}
	defer rows.Close()

	var columns []*domain.Column
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Title, &c.Position, &c.TaskLimit, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("columnRepo.ListByProject: scan: %w", err)
		}
		columns = append(columns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("columnRepo.ListByProject: rows: %w", err)
	}

	return columns, nil
}

func (r *ColumnRepo) Update(ctx context.Context, c *domain.Column) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE columns SET title = $1, position = $2, task_limit = $3 WHERE id = $4`,
		c.Title, c.Position, c.TaskLimit, c.ID,
	)
	if err != nil {
		return fmt.Errorf("columnRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("columnRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ColumnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM columns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("columnRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("columnRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
