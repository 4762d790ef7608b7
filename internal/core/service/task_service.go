package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/policy"
	"github.com/storefront/storefront-api/internal/core/ports"
)

// TaskService checks ownership on the loaded task, since the request gate
// cannot know a task's owner from the route alone.
type TaskService struct {
	repo   ports.TaskRepository
	logger zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger}
}

func (s *TaskService) Create(ctx context.Context, in ports.TaskInput, ownerID string) (*domain.Task, error) {
	t := &domain.Task{OwnerID: ownerID, CreatedAt: time.Now().UTC()}
	applyTaskInput(t, in)
	return s.repo.Create(ctx, t)
}

// List returns every task to principals with unconditional read access and
// only their own tasks to everybody else.
func (s *TaskService) List(ctx context.Context, ability policy.Ability) ([]*domain.Task, error) {
	switch {
	case ability.Can(policy.ActionRead, policy.SubjectTask):
		return s.repo.List(ctx, "")
	case ability.CanSome(policy.ActionRead, policy.SubjectTask):
		return s.repo.List(ctx, ability.PrincipalID())
	default:
		return nil, domain.ErrForbidden
	}
}

func (s *TaskService) Get(ctx context.Context, ability policy.Ability, id string) (*domain.Task, error) {
	return s.load(ctx, ability, policy.ActionRead, id)
}

func (s *TaskService) Update(ctx context.Context, ability policy.Ability, id string, in ports.TaskInput) (*domain.Task, error) {
	t, err := s.load(ctx, ability, policy.ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	applyTaskInput(t, in)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, ability policy.Ability, id string) error {
	if _, err := s.load(ctx, ability, policy.ActionDelete, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *TaskService) load(ctx context.Context, ability policy.Ability, action policy.Action, id string) (*domain.Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ability.CanOwn(action, policy.SubjectTask, t.OwnerID) {
		s.logger.Debug().Str("task_id", id).Str("principal", ability.PrincipalID()).Str("action", string(action)).Msg("task access denied")
		return nil, domain.ErrForbidden
	}
	return t, nil
}

func applyTaskInput(t *domain.Task, in ports.TaskInput) {
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.IsDone != nil {
		t.IsDone = *in.IsDone
	}
}
