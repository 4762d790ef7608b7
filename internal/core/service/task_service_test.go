package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/policy"
	"github.com/storefront/storefront-api/internal/core/ports"
)

type stubTaskRepo struct {
	byID   map[string]*domain.Task
	nextID int
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{byID: make(map[string]*domain.Task)}
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	r.nextID++
	c := *t
	c.ID = "task-" + strconv.Itoa(r.nextID)
	r.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	c := *t
	return &c, nil
}

func (r *stubTaskRepo) List(_ context.Context, ownerID string) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range r.byID {
		if ownerID != "" && t.OwnerID != ownerID {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (r *stubTaskRepo) Update(_ context.Context, t *domain.Task) error {
	if _, ok := r.byID[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	c := *t
	r.byID[t.ID] = &c
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return nil
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTaskService_OwnershipIsEnforced(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewTaskService(repo, zerolog.Nop())
	abilities := policy.NewFactory(nil)

	ana := abilities.For("ana", domain.RoleUser)
	bob := abilities.For("bob", domain.RoleUser)
	admin := abilities.For("root", domain.RoleAdmin)

	task, err := svc.Create(context.Background(), ports.TaskInput{Description: strPtr("buy milk")}, "ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.OwnerID != "ana" {
		t.Fatalf("expected owner ana, got %q", task.OwnerID)
	}

	if _, err := svc.Get(context.Background(), ana, task.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.Get(context.Background(), bob, task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign read: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(context.Background(), bob, task.ID, ports.TaskInput{IsDone: boolPtr(true)}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign update: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), bob, task.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign delete: expected ErrForbidden, got %v", err)
	}

	updated, err := svc.Update(context.Background(), ana, task.ID, ports.TaskInput{IsDone: boolPtr(true)})
	if err != nil || !updated.IsDone || updated.Description != "buy milk" {
		t.Fatalf("owner update = %+v, %v", updated, err)
	}

	if err := svc.Delete(context.Background(), admin, task.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), admin, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskService_ListScopesByAbility(t *testing.T) {
	repo := newStubTaskRepo()
	svc := NewTaskService(repo, zerolog.Nop())
	abilities := policy.NewFactory(nil)

	for _, owner := range []string{"ana", "ana", "bob"} {
		if _, err := svc.Create(context.Background(), ports.TaskInput{Description: strPtr("t")}, owner); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	own, err := svc.List(context.Background(), abilities.For("ana", domain.RoleUser))
	if err != nil || len(own) != 2 {
		t.Fatalf("user list = %d tasks, %v", len(own), err)
	}
	all, err := svc.List(context.Background(), abilities.For("root", domain.RoleAdmin))
	if err != nil || len(all) != 3 {
		t.Fatalf("admin list = %d tasks, %v", len(all), err)
	}
	if _, err := svc.List(context.Background(), abilities.For("x", "guest")); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("unknown role: expected ErrForbidden, got %v", err)
	}
}
