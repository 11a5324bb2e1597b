package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/domain"
	"github.com/flowboardhq/flowboard/internal/realtime"
	"github.com/flowboardhq/flowboard/internal/server/middleware"
)

// actorFromContext builds the broadcast actor from the authenticated
// identity the auth middleware put on the context.
func actorFromContext(ctx context.Context) (realtime.Actor, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return realtime.Actor{}, huma.Error401Unauthorized("missing identity")
	}
	name, _ := middleware.UserNameFromContext(ctx)
	return realtime.Actor{UserID: userID, Name: name}, nil
}

// requireMember checks the caller belongs to the project. Editing
// operations additionally require an editing role.
func requireMember(ctx context.Context, store DataStore, projectID uuid.UUID, needEdit bool) (*domain.ProjectMember, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing identity")
	}

	member, err := store.Members().Get(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error403Forbidden("not a project member")
		}
		return nil, huma.Error500InternalServerError("failed to check membership", err)
	}

	if needEdit && !member.Role.CanEdit() {
		return nil, huma.Error403Forbidden("viewer role cannot modify the board")
	}

	return member, nil
}
