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

type CreateTimeEntryInput struct {
	TaskID uuid.UUID `path:"taskID" doc:"Task ID"`
	Body   struct {
		Minutes int    `json:"minutes" minimum:"1" maximum:"1440" doc:"Minutes spent"`
		Note    string `json:"note,omitempty" maxLength:"500" doc:"Optional note"`
	}
}

type CreateTimeEntryOutput struct {
	Body *domain.TimeEntry
}

type ListTimeEntriesInput struct {
	TaskID uuid.UUID `path:"taskID" doc:"Task ID"`
}

type ListTimeEntriesOutput struct {
	Body struct {
		Entries      []*domain.TimeEntry `json:"entries"`
		TotalMinutes int                 `json:"total_minutes"`
	}
}

func RegisterTimeEntryRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-time-entry",
		Method:      http.MethodPost,
		Path:        "/tasks/{taskID}/time",
		Summary:     "Log time spent on a task",
		Tags:        []string{"Time Tracking"},
	}, func(ctx context.Context, input *CreateTimeEntryInput) (*CreateTimeEntryOutput, error) {
		task, err := store.Tasks().GetByID(ctx, input.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if _, err := requireMember(ctx, store, task.ProjectID, true); err != nil {
			return nil, err
		}
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		e := &domain.TimeEntry{
			ID:        uuid.New(),
			TaskID:    task.ID,
			UserID:    actor.UserID,
			Minutes:   input.Body.Minutes,
			Note:      input.Body.Note,
			CreatedAt: time.Now(),
		}

		if err := store.TimeEntries().Create(ctx, e); err != nil {
			return nil, huma.Error500InternalServerError("failed to create time entry", err)
		}

		return &CreateTimeEntryOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-time-entries",
		Method:      http.MethodGet,
		Path:        "/tasks/{taskID}/time",
		Summary:     "List time entries for a task",
		Tags:        []string{"Time Tracking"},
	}, func(ctx context.Context, input *ListTimeEntriesInput) (*ListTimeEntriesOutput, error) {
		task, err := store.Tasks().GetByID(ctx, input.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if _, err := requireMember(ctx, store, task.ProjectID, false); err != nil {
			return nil, err
		}

		entries, err := store.TimeEntries().ListByTask(ctx, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list time entries", err)
		}
		total, err := store.TimeEntries().TotalMinutes(ctx, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to total time entries", err)
		}

		out := &ListTimeEntriesOutput{}
		out.Body.Entries = entries
		out.Body.TotalMinutes = total
		return out, nil
	})
}
