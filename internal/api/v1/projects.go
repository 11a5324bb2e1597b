package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/domain"
	"github.com/flowboardhq/flowboard/internal/realtime"
	"github.com/flowboardhq/flowboard/internal/server/middleware"
)

type CreateProjectInput struct {
	Body struct {
		Name        string `json:"name" minLength:"1" maxLength:"255" doc:"Project name"`
		Description string `json:"description,omitempty" doc:"Project description"`
		Color       string `json:"color,omitempty" maxLength:"32" doc:"Board accent color"`
	}
}

type CreateProjectOutput struct {
	Body *domain.Project
}

type ListProjectsOutput struct {
	Body []*domain.Project
}

type GetProjectInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type GetProjectOutput struct {
	Body *domain.Project
}

type AddMemberInput struct {
	ID   uuid.UUID `path:"id" doc:"Project ID"`
	Body struct {
		UserID uuid.UUID `json:"user_id" doc:"User to add"`
		Role   string    `json:"role" enum:"editor,viewer" doc:"Member role"`
	}
}

type AddMemberOutput struct {
	Body *domain.ProjectMember
}

type ListMembersInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type ListMembersOutput struct {
	Body []*domain.ProjectMember
}

type ActiveUsersInput struct {
	ID uuid.UUID `path:"id" doc:"Project ID"`
}

type ActiveUsersOutput struct {
	Body struct {
		Count int                       `json:"count"`
		Users []realtime.PresenceRecord `json:"users"`
	}
}

func RegisterProjectRoutes(api huma.API, store DataStore, rt Broadcaster) {
	huma.Register(api, huma.Operation{
		OperationID: "create-project",
		Method:      http.MethodPost,
		Path:        "/projects",
		Summary:     "Create a new project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *CreateProjectInput) (*CreateProjectOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing identity")
		}

		p, err := domain.NewProject(userID, input.Body.Name, input.Body.Description, input.Body.Color)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Projects().Create(ctx, p); err != nil {
			return nil, huma.Error500InternalServerError("failed to create project", err)
		}

		// The creator becomes the owning member.
		m := &domain.ProjectMember{
			ProjectID: p.ID,
			UserID:    userID,
			Role:      domain.MemberRoleOwner,
			JoinedAt:  time.Now(),
		}
		if err := store.Members().Add(ctx, m); err != nil {
			return nil, huma.Error500InternalServerError("failed to add owner membership", err)
		}

		return &CreateProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects the caller belongs to",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, _ *struct{}) (*ListProjectsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing identity")
		}

		projects, err := store.Projects().ListByMember(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list projects", err)
		}

		return &ListProjectsOutput{Body: projects}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get a project by ID",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *GetProjectInput) (*GetProjectOutput, error) {
		if _, err := requireMember(ctx, store, input.ID, false); err != nil {
			return nil, err
		}

		p, err := store.Projects().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("project not found")
			}
			return nil, huma.Error500InternalServerError("failed to get project", err)
		}

		return &GetProjectOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-project-member",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/members",
		Summary:     "Add a member to a project",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *AddMemberInput) (*AddMemberOutput, error) {
		member, err := requireMember(ctx, store, input.ID, true)
		if err != nil {
			return nil, err
		}
		if member.Role != domain.MemberRoleOwner {
			return nil, huma.Error403Forbidden("only the owner can manage members")
		}

		if _, err := store.Users().GetByID(ctx, input.Body.UserID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up user", err)
		}

		m := &domain.ProjectMember{
			ProjectID: input.ID,
			UserID:    input.Body.UserID,
			Role:      domain.MemberRole(input.Body.Role),
			JoinedAt:  time.Now(),
		}
		if err := store.Members().Add(ctx, m); err != nil {
			return nil, huma.Error500InternalServerError("failed to add member", err)
		}

		return &AddMemberOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-project-members",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/members",
		Summary:     "List project members",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ListMembersInput) (*ListMembersOutput, error) {
		if _, err := requireMember(ctx, store, input.ID, false); err != nil {
			return nil, err
		}

		members, err := store.Members().ListByProject(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		return &ListMembersOutput{Body: members}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-active-users",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/active-users",
		Summary:     "List users currently viewing the board",
		Tags:        []string{"Projects"},
	}, func(ctx context.Context, input *ActiveUsersInput) (*ActiveUsersOutput, error) {
		if _, err := requireMember(ctx, store, input.ID, false); err != nil {
			return nil, err
		}

		out := &ActiveUsersOutput{}
		out.Body.Count = rt.ActiveUsersCount(input.ID)
		out.Body.Users = rt.ActiveUsers(input.ID)
		return out, nil
	})
}
