package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/domain"
	"github.com/flowboardhq/flowboard/internal/realtime"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Projects() domain.ProjectRepository
	Members() domain.MemberRepository
	Columns() domain.ColumnRepository
	Tasks() domain.TaskRepository
	Comments() domain.CommentRepository
	TimeEntries() domain.TimeEntryRepository
	Notifications() domain.NotificationRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	Refresh(ctx context.Context, refreshToken string) (newAccess, newRefresh string, err error)
	Logout(ctx context.Context, refreshToken string) error
}

// Broadcaster is the realtime layer's server-originated event surface,
// invoked after a database mutation commits. *realtime.Gateway satisfies
// this interface.
type Broadcaster interface {
	BroadcastTaskMoved(projectID uuid.UUID, p realtime.TaskMovedPayload, actor realtime.Actor)
	BroadcastTaskCreated(projectID uuid.UUID, p realtime.TaskCreatedPayload, actor realtime.Actor)
	BroadcastTaskUpdated(projectID uuid.UUID, p realtime.TaskUpdatedPayload, actor realtime.Actor)
	BroadcastTaskDeleted(projectID uuid.UUID, p realtime.TaskDeletedPayload, actor realtime.Actor)
	BroadcastTaskRestored(projectID uuid.UUID, p realtime.TaskRestoredPayload, actor realtime.Actor)
	BroadcastCommentAdded(projectID uuid.UUID, p realtime.CommentAddedPayload, actor realtime.Actor)
	ActiveUsers(projectID uuid.UUID) []realtime.PresenceRecord
	ActiveUsersCount(projectID uuid.UUID) int
}
