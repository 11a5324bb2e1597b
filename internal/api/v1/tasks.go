package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/domain"
	"github.com/flowboardhq/flowboard/internal/notify"
	"github.com/flowboardhq/flowboard/internal/realtime"
)

type CreateTaskInput struct {
	Body struct {
		ProjectID   uuid.UUID  `json:"project_id" doc:"Project ID"`
		ColumnID    uuid.UUID  `json:"column_id" doc:"Board column ID"`
		Title       string     `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description string     `json:"description,omitempty" doc:"Task description"`
		Priority    string     `json:"priority,omitempty" enum:"low,medium,high,urgent" doc:"Task priority"`
		Position    int        `json:"position,omitempty" minimum:"0" doc:"Position within the column"`
		AssigneeID  *uuid.UUID `json:"assignee_id,omitempty" doc:"Assigned user ID"`
		DueDate     *time.Time `json:"due_date,omitempty" doc:"Due date"`
	}
}

type CreateTaskOutput struct {
	Body *domain.Task
}

type ListTasksInput struct {
	ProjectID uuid.UUID `query:"project_id" required:"true" doc:"Project ID"`
}

type ListTasksOutput struct {
	Body []*domain.Task
}

type GetTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type GetTaskOutput struct {
	Body *domain.Task
}

type UpdateTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Title       string     `json:"title,omitempty" maxLength:"500" doc:"Task title"`
		Description *string    `json:"description,omitempty" doc:"Task description"`
		Priority    string     `json:"priority,omitempty" enum:"low,medium,high,urgent" doc:"Task priority"`
		AssigneeID  *uuid.UUID `json:"assignee_id,omitempty" doc:"Assigned user ID"`
		DueDate     *time.Time `json:"due_date,omitempty" doc:"Due date"`
	}
}

type UpdateTaskOutput struct {
	Body *domain.Task
}

type MoveTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		ToColumnID uuid.UUID `json:"to_column_id" doc:"Destination column ID"`
		Position   int       `json:"position" minimum:"0" doc:"Position within the destination column"`
	}
}

type MoveTaskOutput struct {
	Body *domain.Task
}

type DeleteTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type RestoreTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type RestoreTaskOutput struct {
	Body *domain.Task
}

func RegisterTaskRoutes(api huma.API, store DataStore, rt Broadcaster, notifier *notify.Notifier) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a new task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*CreateTaskOutput, error) {
		if _, err := requireMember(ctx, store, input.Body.ProjectID, true); err != nil {
			return nil, err
		}
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		column, err := store.Columns().GetByID(ctx, input.Body.ColumnID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("column not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate column", err)
		}
		if column.ProjectID != input.Body.ProjectID {
			return nil, huma.Error400BadRequest("column belongs to a different project")
		}

		priority := domain.TaskPriority(input.Body.Priority)
		if input.Body.Priority == "" {
			priority = domain.TaskPriorityMedium
		}

		now := time.Now()
		t := &domain.Task{
			ID:          uuid.New(),
			ProjectID:   input.Body.ProjectID,
			ColumnID:    input.Body.ColumnID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Priority:    priority,
			Position:    input.Body.Position,
			AssigneeID:  input.Body.AssigneeID,
			DueDate:     input.Body.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Tasks().Create(ctx, t); err != nil {
			return nil, huma.Error500InternalServerError("failed to create task", err)
		}

		rt.BroadcastTaskCreated(t.ProjectID, realtime.TaskCreatedPayload{
			TaskID:   t.ID,
			ColumnID: t.ColumnID,
			Title:    t.Title,
			Priority: string(t.Priority),
		}, actor)
		notifier.TaskAssigned(ctx, t, actor.UserID, actor.Name)

		return &CreateTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks for a project",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		if _, err := requireMember(ctx, store, input.ProjectID, false); err != nil {
			return nil, err
		}

		tasks, err := store.Tasks().ListByProject(ctx, input.ProjectID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list tasks", err)
		}

		return &ListTasksOutput{Body: tasks}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*GetTaskOutput, error) {
		t, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if _, err := requireMember(ctx, store, t.ProjectID, false); err != nil {
			return nil, err
		}

		return &GetTaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*UpdateTaskOutput, error) {
		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if _, err := requireMember(ctx, store, existing.ProjectID, true); err != nil {
			return nil, err
		}
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		changed := map[string]any{}
		if input.Body.Title != "" {
			existing.Title = input.Body.Title
			changed["title"] = input.Body.Title
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
			changed["description"] = *input.Body.Description
		}
		if input.Body.Priority != "" {
			existing.Priority = domain.TaskPriority(input.Body.Priority)
			changed["priority"] = input.Body.Priority
		}
		assigneeChanged := false
		if input.Body.AssigneeID != nil {
			assigneeChanged = existing.AssigneeID == nil || *existing.AssigneeID != *input.Body.AssigneeID
			existing.AssigneeID = input.Body.AssigneeID
			changed["assignee_id"] = input.Body.AssigneeID.String()
		}
		if input.Body.DueDate != nil {
			existing.DueDate = input.Body.DueDate
			changed["due_date"] = *input.Body.DueDate
		}
		existing.UpdatedAt = time.Now()

		if err := store.Tasks().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update task", err)
		}

		if len(changed) > 0 {
			rt.BroadcastTaskUpdated(existing.ProjectID, realtime.TaskUpdatedPayload{
				TaskID:        existing.ID,
				ChangedFields: changed,
			}, actor)
		}
		if assigneeChanged {
			notifier.TaskAssigned(ctx, existing, actor.UserID, actor.Name)
		}

		return &UpdateTaskOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}/move",
		Summary:     "Move a task to another column or position",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *MoveTaskInput) (*MoveTaskOutput, error) {
		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if _, err := requireMember(ctx, store, existing.ProjectID, true); err != nil {
			return nil, err
		}
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		column, err := store.Columns().GetByID(ctx, input.Body.ToColumnID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("destination column not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate column", err)
		}
		if column.ProjectID != existing.ProjectID {
			return nil, huma.Error400BadRequest("destination column belongs to a different project")
		}

		fromColumnID := existing.ColumnID

		if err := store.Tasks().Move(ctx, existing.ID, input.Body.ToColumnID, input.Body.Position); err != nil {
			return nil, huma.Error500InternalServerError("failed to move task", err)
		}

		existing.ColumnID = input.Body.ToColumnID
		existing.Position = input.Body.Position
		existing.UpdatedAt = time.Now()

		rt.BroadcastTaskMoved(existing.ProjectID, realtime.TaskMovedPayload{
			TaskID:       existing.ID,
			FromColumnID: fromColumnID,
			ToColumnID:   existing.ColumnID,
			NewPosition:  existing.Position,
		}, actor)

		return &MoveTaskOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Soft-delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if _, err := requireMember(ctx, store, existing.ProjectID, true); err != nil {
			return nil, err
		}
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := store.Tasks().SoftDelete(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete task", err)
		}

		rt.BroadcastTaskDeleted(existing.ProjectID, realtime.TaskDeletedPayload{
			TaskID:   existing.ID,
			ColumnID: existing.ColumnID,
		}, actor)

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "restore-task",
		Method:      http.MethodPost,
		Path:        "/tasks/{id}/restore",
		Summary:     "Restore a soft-deleted task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *RestoreTaskInput) (*RestoreTaskOutput, error) {
		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		if _, err := requireMember(ctx, store, existing.ProjectID, true); err != nil {
			return nil, err
		}
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if !existing.Deleted() {
			return nil, huma.Error409Conflict("task is not deleted")
		}

		if err := store.Tasks().Restore(ctx, input.ID); err != nil {
			return nil, huma.Error500InternalServerError("failed to restore task", err)
		}

		existing.DeletedAt = nil
		existing.UpdatedAt = time.Now()

		rt.BroadcastTaskRestored(existing.ProjectID, realtime.TaskRestoredPayload{
			TaskID:   existing.ID,
			ColumnID: existing.ColumnID,
		}, actor)

		return &RestoreTaskOutput{Body: existing}, nil
	})
}
