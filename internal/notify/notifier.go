// Package notify writes in-app notifications for board activity.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowboardhq/flowboard/internal/domain"
)

const (
	KindAssigned = "assigned"
	KindComment  = "comment"
)

// Notifier records notifications for users affected by board changes.
// Failures are logged, never surfaced: a missed notification must not
// fail the request that triggered it.
type Notifier struct {
	notifications domain.NotificationRepository
}

func New(notifications domain.NotificationRepository) *Notifier {
	return &Notifier{notifications: notifications}
}

// TaskAssigned notifies the new assignee of a task. Self-assignment is
// silent.
func (n *Notifier) TaskAssigned(ctx context.Context, task *domain.Task, actorID uuid.UUID, actorName string) {
	if task.AssigneeID == nil || *task.AssigneeID == actorID {
		return
	}
	n.create(ctx, &domain.Notification{
		ID:        uuid.New(),
		UserID:    *task.AssigneeID,
		ProjectID: task.ProjectID,
		Kind:      KindAssigned,
		Message:   fmt.Sprintf("%s assigned you to %q", actorName, task.Title),
		CreatedAt: time.Now(),
	})
}

// CommentAdded notifies the task assignee about a new comment. The
// commenter never hears about their own comment.
func (n *Notifier) CommentAdded(ctx context.Context, task *domain.Task, actorID uuid.UUID, actorName string) {
	if task.AssigneeID == nil || *task.AssigneeID == actorID {
		return
	}
	n.create(ctx, &domain.Notification{
		ID:        uuid.New(),
		UserID:    *task.AssigneeID,
		ProjectID: task.ProjectID,
		Kind:      KindComment,
		Message:   fmt.Sprintf("%s commented on %q", actorName, task.Title),
		CreatedAt: time.Now(),
	})
}

func (n *Notifier) create(ctx context.Context, notification *domain.Notification) {
	if err := n.notifications.Create(ctx, notification); err != nil {
		log.Error().Err(err).
			Str("user_id", notification.UserID.String()).
			Str("kind", notification.Kind).
			Msg("failed to record notification")
	}
}
