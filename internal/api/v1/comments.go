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

type CreateCommentInput struct {
	TaskID uuid.UUID `path:"taskID" doc:"Task ID"`
	Body   struct {
		Text string `json:"text" minLength:"1" maxLength:"10000" doc:"Comment text"`
	}
}

type CreateCommentOutput struct {
	Body *domain.Comment
}

type ListCommentsInput struct {
	TaskID uuid.UUID `path:"taskID" doc:"Task ID"`
}

type ListCommentsOutput struct {
	Body []*domain.Comment
}

func RegisterCommentRoutes(api huma.API, store DataStore, rt Broadcaster, notifier *notify.Notifier) {
	huma.Register(api, huma.Operation{
		OperationID: "create-comment",
		Method:      http.MethodPost,
		Path:        "/tasks/{taskID}/comments",
		Summary:     "Add a comment to a task",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *CreateCommentInput) (*CreateCommentOutput, error) {
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

		c := &domain.Comment{
			ID:        uuid.New(),
			TaskID:    task.ID,
			AuthorID:  actor.UserID,
			Text:      input.Body.Text,
			CreatedAt: time.Now(),
		}

		if err := store.Comments().Create(ctx, c); err != nil {
			return nil, huma.Error500InternalServerError("failed to create comment", err)
		}

		rt.BroadcastCommentAdded(task.ProjectID, realtime.CommentAddedPayload{
			TaskID:    task.ID,
			CommentID: c.ID,
			Text:      c.Text,
		}, actor)
		notifier.CommentAdded(ctx, task, actor.UserID, actor.Name)

		return &CreateCommentOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-comments",
		Method:      http.MethodGet,
		Path:        "/tasks/{taskID}/comments",
		Summary:     "List comments on a task",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *ListCommentsInput) (*ListCommentsOutput, error) {
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

		comments, err := store.Comments().ListByTask(ctx, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list comments", err)
		}

		return &ListCommentsOutput{Body: comments}, nil
	})
}
