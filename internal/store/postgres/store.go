package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowboardhq/flowboard/internal/domain"
)

type Store struct {
	pool          *pgxpool.Pool
	users         *UserRepo
	projects      *ProjectRepo
	members       *MemberRepo
	columns       *ColumnRepo
	tasks         *TaskRepo
	comments      *CommentRepo
	timeEntries   *TimeEntryRepo
	notifications *NotificationRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:          pool,
		users:         NewUserRepo(pool),
		projects:      NewProjectRepo(pool),
		members:       NewMemberRepo(pool),
		columns:       NewColumnRepo(pool),
		tasks:         NewTaskRepo(pool),
		comments:      NewCommentRepo(pool),
		timeEntries:   NewTimeEntryRepo(pool),
		notifications: NewNotificationRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Users() domain.UserRepository                 { return s.users }
func (s *Store) Projects() domain.ProjectRepository           { return s.projects }
func (s *Store) Members() domain.MemberRepository             { return s.members }
func (s *Store) Columns() domain.ColumnRepository             { return s.columns }
func (s *Store) Tasks() domain.TaskRepository                 { return s.tasks }
func (s *Store) Comments() domain.CommentRepository           { return s.comments }
func (s *Store) TimeEntries() domain.TimeEntryRepository      { return s.timeEntries }
func (s *Store) Notifications() domain.NotificationRepository { return s.notifications }
