package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/domain"
)

type CreateColumnInput struct {
	Body struct {
		ProjectID uuid.UUID `json:"project_id" doc:"Project ID"`
		Title     string    `json:"title" minLength:"1" maxLength:"255" doc:"Column title"`
		Position  int       `json:"position" minimum:"0" doc:"Column position on the board"`
		TaskLimit int       `json:"task_limit,omitempty" minimum:"0" doc:"WIP limit (0 = unlimited)"`
	}
}

type CreateColumnOutput struct {
	Body *domain.Column
}

type ListColumnsInput struct {
	ProjectID uuid.UUID `query:"project_id" required:"true" doc:"Project ID"`
}

type ListColumnsOutput struct {
	Body []*domain.Column
}

type UpdateColumnInput struct {
	ID   uuid.UUID `path:"id" doc:"Column ID"`
	Body struct {
		Title     string `json:"title,omitempty" maxLength:"255" doc:"Column title"`
		Position  *int   `json:"position,omitempty" doc:"Column position"`
		TaskLimit *int   `json:"task_limit,omitempty" doc:"WIP limit"`
	}
}

type UpdateColumnOutput struct {
	Body *domain.Column
}

type DeleteColumnInput struct {
	ID uuid.UUID `path:"id" doc:"Column ID"`
}

func RegisterColumnRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-column",
		Method:      http.MethodPost,
		Path:        "/columns",
		Summary:     "Create a board column",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *CreateColumnInput) (*CreateColumnOutput, error) {
		if _, err := requireMember(ctx, store, input.Body.ProjectID, true); err != nil {
			return nil, err
		}

		c := &domain.Column{
			ID:        uuid.New(),
			ProjectID: input.Body.ProjectID,
			Title:     input.Body.Title,
			Position:  input.Body.Position,
			TaskLimit: input.Body.TaskLimit,
			CreatedAt: time.Now(),
		}

		if err := store.Columns().Create(ctx, c); err != nil {
			return nil, huma.Error500InternalServerError("failed to create column", err)
		}

		return &CreateColumnOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-columns",
		Method:      http.MethodGet,
		Path:        "/columns",
		Summary:     "List columns for a project",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *ListColumnsInput) (*ListColumnsOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID, false); err != nil {
			return nil, err
		}

		columns, err := store.Columns().ListByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list columns", err)
		}

		return &ListColumnsOutput{Body: columns}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-column",
		Method:      http.MethodPut,
		Path:        "/columns/{id}",
		Summary:     "Update a board column",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *UpdateColumnInput) (*UpdateColumnOutput, error) {
		existing, err := store.Columns().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("column not found")
			}
			return nil, huma.Error500InternalServerError("failed to get column", err)
		}

		if _, err := requireMember(ctx, store, existing.ProjectID, true); err != nil {
			return nil, err
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Position != nil {
			existing.Position = *input.Body.Position
		}
		if input.Body.TaskLimit != nil {
			existing.TaskLimit = *input.Body.TaskLimit
		}

		if err := store.Columns().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update column", err)
		}

		return &UpdateColumnOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-column",
		Method:      http.MethodDelete,
		Path:        "/columns/{id}",
		Summary:     "Delete a board column",
		Tags:        []string{"Columns"},
	}, func(ctx context.Context, input *DeleteColumnInput) (*struct{}, error) {
		existing, err := store.Columns().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("column not found")
			}
			return nil, huma.Error500InternalServerError("failed to get column", err)
		}

		if _, err := requireMember(ctx, store, existing.ProjectID, true); err != nil {
			return nil, err
		}

		if err := store.Columns().Delete(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete column", err)
		}

		return nil, nil
	})
}
