package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProject creates a Project with validated required fields.
func NewProject(ownerID uuid.UUID, name, description, color string) (*Project, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New("project: owner ID is required")
	}
	if name == "" {
		return nil, errors.New("project: name is required")
	}
	now := time.Now()
	return &Project{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MemberRole is a user's role within a single project.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleEditor MemberRole = "editor"
	MemberRoleViewer MemberRole = "viewer"
)

// CanEdit reports whether the role may mutate board contents.
func (r MemberRole) CanEdit() bool {
	return r == MemberRoleOwner || r == MemberRoleEditor
}

type ProjectMember struct {
	ProjectID uuid.UUID  `json:"project_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      MemberRole `json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`
}

type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, p *Project) error
	ListByMember(ctx context.Context, userID uuid.UUID) ([]*Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MemberRepository interface {
	Add(ctx context.Context, m *ProjectMember) error
	Remove(ctx context.Context, projectID, userID uuid.UUID) error
	Get(ctx context.Context, projectID, userID uuid.UUID) (*ProjectMember, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*ProjectMember, error)
}
