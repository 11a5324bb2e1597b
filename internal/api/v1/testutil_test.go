package v1_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/flowboardhq/flowboard/internal/domain"
	"github.com/flowboardhq/flowboard/internal/realtime"
	"github.com/flowboardhq/flowboard/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the authenticated identity for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID, name string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, "member")
	ctx = context.WithValue(ctx, middleware.ContextKeyUserName, name)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users         domain.UserRepository
	projects      domain.ProjectRepository
	members       domain.MemberRepository
	columns       domain.ColumnRepository
	tasks         domain.TaskRepository
	comments      domain.CommentRepository
	timeEntries   domain.TimeEntryRepository
	notifications domain.NotificationRepository
}

func (m *mockDataStore) Users() domain.UserRepository                 { return m.users }
func (m *mockDataStore) Projects() domain.ProjectRepository           { return m.projects }
func (m *mockDataStore) Members() domain.MemberRepository             { return m.members }
func (m *mockDataStore) Columns() domain.ColumnRepository             { return m.columns }
func (m *mockDataStore) Tasks() domain.TaskRepository                 { return m.tasks }
func (m *mockDataStore) Comments() domain.CommentRepository           { return m.comments }
func (m *mockDataStore) TimeEntries() domain.TimeEntryRepository      { return m.timeEntries }
func (m *mockDataStore) Notifications() domain.NotificationRepository { return m.notifications }

// editorMember returns a MemberRepository whose Get always answers with an
// editor membership for the given user. Most board tests only need that.
func editorMember(userID uuid.UUID) domain.MemberRepository {
	return &mockMemberRepo{
		getFunc: func(_ context.Context, projectID, uid uuid.UUID) (*domain.ProjectMember, error) {
			if uid != userID {
				return nil, domain.ErrNotFound
			}
			return &domain.ProjectMember{ProjectID: projectID, UserID: uid, Role: domain.MemberRoleEditor}, nil
		},
	}
}

func viewerMember(userID uuid.UUID) domain.MemberRepository {
	return &mockMemberRepo{
		getFunc: func(_ context.Context, projectID, uid uuid.UUID) (*domain.ProjectMember, error) {
			if uid != userID {
				return nil, domain.ErrNotFound
			}
			return &domain.ProjectMember{ProjectID: projectID, UserID: uid, Role: domain.MemberRoleViewer}, nil
		},
	}
}

// ---------------------------------------------------------------------------
// Mock repositories — func fields, nil func panics loudly on unexpected use
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc     func(ctx context.Context, u *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	updateFunc     func(ctx context.Context, u *domain.User) error
	listFunc       func(ctx context.Context) ([]*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error { return m.createFunc(ctx, u) }
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}
func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error { return m.updateFunc(ctx, u) }
func (m *mockUserRepo) List(ctx context.Context) ([]*domain.User, error) { return m.listFunc(ctx) }

type mockProjectRepo struct {
	createFunc       func(ctx context.Context, p *domain.Project) error
	getByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	updateFunc       func(ctx context.Context, p *domain.Project) error
	listByMemberFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error)
	deleteFunc       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	return m.createFunc(ctx, p)
}
func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return m.getByIDFunc(ctx, id)
}
func (m *mockProjectRepo) Update(ctx context.Context, p *domain.Project) error {
	return m.updateFunc(ctx, p)
}
func (m *mockProjectRepo) ListByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	return m.listByMemberFunc(ctx, userID)
}
func (m *mockProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

type mockMemberRepo struct {
	addFunc           func(ctx context.Context, m *domain.ProjectMember) error
	removeFunc        func(ctx context.Context, projectID, userID uuid.UUID) error
	getFunc           func(ctx context.Context, projectID, userID uuid.UUID) (*domain.ProjectMember, error)
	listByProjectFunc func(ctx context.Context, projectID uuid.UUID) ([]*domain.ProjectMember, error)
}

func (m *mockMemberRepo) Add(ctx context.Context, pm *domain.ProjectMember) error {
	return m.addFunc(ctx, pm)
}
func (m *mockMemberRepo) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	return m.removeFunc(ctx, projectID, userID)
}
func (m *mockMemberRepo) Get(ctx context.Context, projectID, userID uuid.UUID) (*domain.ProjectMember, error) {
	return m.getFunc(ctx, projectID, userID)
}
func (m *mockMemberRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.ProjectMember, error) {
	return m.listByProjectFunc(ctx, projectID)
}

type mockColumnRepo struct {
	createFunc        func(ctx context.Context, c *domain.Column) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.Column, error)
	listByProjectFunc func(ctx context.Context, projectID uuid.UUID) ([]*domain.Column, error)
	updateFunc        func(ctx context.Context, c *domain.Column) error
	deleteFunc        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockColumnRepo) Create(ctx context.Context, c *domain.Column) error {
	return m.createFunc(ctx, c)
}
func (m *mockColumnRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	return m.getByIDFunc(ctx, id)
}
func (m *mockColumnRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Column, error) {
	return m.listByProjectFunc(ctx, projectID)
}
func (m *mockColumnRepo) Update(ctx context.Context, c *domain.Column) error {
	return m.updateFunc(ctx, c)
}
func (m *mockColumnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

type mockTaskRepo struct {
	createFunc        func(ctx context.Context, t *domain.Task) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	listByProjectFunc func(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error)
	listByColumnFunc  func(ctx context.Context, columnID uuid.UUID) ([]*domain.Task, error)
	updateFunc        func(ctx context.Context, t *domain.Task) error
	moveFunc          func(ctx context.Context, id, toColumnID uuid.UUID, position int) error
	softDeleteFunc    func(ctx context.Context, id uuid.UUID) error
	restoreFunc       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) error { return m.createFunc(ctx, t) }
func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFunc(ctx, id)
}
func (m *mockTaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*domain.Task, error) {
	return m.listByProjectFunc(ctx, projectID)
}
func (m *mockTaskRepo) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*domain.Task, error) {
	return m.listByColumnFunc(ctx, columnID)
}
func (m *mockTaskRepo) Update(ctx context.Context, t *domain.Task) error { return m.updateFunc(ctx, t) }
func (m *mockTaskRepo) Move(ctx context.Context, id, toColumnID uuid.UUID, position int) error {
	return m.moveFunc(ctx, id, toColumnID, position)
}
func (m *mockTaskRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.softDeleteFunc(ctx, id)
}
func (m *mockTaskRepo) Restore(ctx context.Context, id uuid.UUID) error {
	return m.restoreFunc(ctx, id)
}

type mockCommentRepo struct {
	createFunc     func(ctx context.Context, c *domain.Comment) error
	listByTaskFunc func(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error)
	deleteFunc     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockCommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	return m.createFunc(ctx, c)
}
func (m *mockCommentRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error) {
	return m.listByTaskFunc(ctx, taskID)
}
func (m *mockCommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

type mockTimeEntryRepo struct {
	createFunc       func(ctx context.Context, e *domain.TimeEntry) error
	listByTaskFunc   func(ctx context.Context, taskID uuid.UUID) ([]*domain.TimeEntry, error)
	totalMinutesFunc func(ctx context.Context, taskID uuid.UUID) (int, error)
}

func (m *mockTimeEntryRepo) Create(ctx context.Context, e *domain.TimeEntry) error {
	return m.createFunc(ctx, e)
}
func (m *mockTimeEntryRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.TimeEntry, error) {
	return m.listByTaskFunc(ctx, taskID)
}
func (m *mockTimeEntryRepo) TotalMinutes(ctx context.Context, taskID uuid.UUID) (int, error) {
	return m.totalMinutesFunc(ctx, taskID)
}

type mockNotificationRepo struct {
	createFunc     func(ctx context.Context, n *domain.Notification) error
	listByUserFunc func(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error)
	markReadFunc   func(ctx context.Context, id uuid.UUID) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return m.createFunc(ctx, n)
}
func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	return m.listByUserFunc(ctx, userID, unreadOnly)
}
func (m *mockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	return m.markReadFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock Broadcaster — records every broadcast for assertions
// ---------------------------------------------------------------------------

type broadcastCall struct {
	kind      realtime.EventType
	projectID uuid.UUID
	payload   any
	actor     realtime.Actor
}

type mockBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (m *mockBroadcaster) record(kind realtime.EventType, projectID uuid.UUID, payload any, actor realtime.Actor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, broadcastCall{kind: kind, projectID: projectID, payload: payload, actor: actor})
}

func (m *mockBroadcaster) Calls() []broadcastCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broadcastCall(nil), m.calls...)
}

func (m *mockBroadcaster) BroadcastTaskMoved(projectID uuid.UUID, p realtime.TaskMovedPayload, actor realtime.Actor) {
	m.record(realtime.EventTaskMoved, projectID, p, actor)
}

func (m *mockBroadcaster) BroadcastTaskCreated(projectID uuid.UUID, p realtime.TaskCreatedPayload, actor realtime.Actor) {
	m.record(realtime.EventTaskCreated, projectID, p, actor)
}

func (m *mockBroadcaster) BroadcastTaskUpdated(projectID uuid.UUID, p realtime.TaskUpdatedPayload, actor realtime.Actor) {
	m.record(realtime.EventTaskUpdated, projectID, p, actor)
}

func (m *mockBroadcaster) BroadcastTaskDeleted(projectID uuid.UUID, p realtime.TaskDeletedPayload, actor realtime.Actor) {
	m.record(realtime.EventTaskDeleted, projectID, p, actor)
}

func (m *mockBroadcaster) BroadcastTaskRestored(projectID uuid.UUID, p realtime.TaskRestoredPayload, actor realtime.Actor) {
	m.record(realtime.EventTaskRestored, projectID, p, actor)
}

func (m *mockBroadcaster) BroadcastCommentAdded(projectID uuid.UUID, p realtime.CommentAddedPayload, actor realtime.Actor) {
	m.record(realtime.EventCommentAdded, projectID, p, actor)
}

func (m *mockBroadcaster) ActiveUsers(uuid.UUID) []realtime.PresenceRecord { return nil }
func (m *mockBroadcaster) ActiveUsersCount(uuid.UUID) int                  { return 0 }

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc    func(ctx context.Context, email, password string) (string, string, error)
	refreshFunc  func(ctx context.Context, refreshToken string) (string, string, error)
	logoutFunc   func(ctx context.Context, refreshToken string) error
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	return m.refreshFunc(ctx, refreshToken)
}

func (m *mockAuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.logoutFunc(ctx, refreshToken)
}
