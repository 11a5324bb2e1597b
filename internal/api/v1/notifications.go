package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/domain"
	"github.com/flowboardhq/flowboard/internal/server/middleware"
)

type ListNotificationsInput struct {
	UnreadOnly bool `query:"unread_only" doc:"Return only unread notifications"`
}

type ListNotificationsOutput struct {
	Body []*domain.Notification
}

type MarkNotificationReadInput struct {
	ID uuid.UUID `path:"id" doc:"Notification ID"`
}

func RegisterNotificationRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List notifications for the current user",
		Tags:        []string{"Notifications"},
	}, func(ctx context.Context, input *ListNotificationsInput) (*ListNotificationsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		notifications, err := store.Notifications().ListByUser(ctx, userID, input.UnreadOnly)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list notifications", err)
		}

		return &ListNotificationsOutput{Body: notifications}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-notification-read",
		Method:      http.MethodPost,
		Path:        "/notifications/{id}/read",
		Summary:     "Mark a notification as read",
		Tags:        []string{"Notifications"},
	}, func(ctx context.Context, input *MarkNotificationReadInput) (*struct{}, error) {
		if _, ok := middleware.UserIDFromContext(ctx); !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		if err := store.Notifications().MarkRead(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("notification not found")
			}
			return nil, huma.Error500InternalServerError("failed to mark notification read", err)
		}

		return nil, nil
	})
}
