package ports

import (
	"context"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/policy"
)

// ProductInput carries writable product fields. Nil pointers are left
// untouched on update.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	IsActive    *bool
	CategoryID  *string
}

// CategoryInput carries writable category fields.
type CategoryInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// TaskInput carries writable task fields.
type TaskInput struct {
	Description *string
	IsDone      *bool
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
}

type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns every task when ownerID is empty, otherwise only the
	// owner's tasks.
	List(ctx context.Context, ownerID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
}

type ProductService interface {
	Create(ctx context.Context, in ProductInput, createdBy string) (*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type CategoryService interface {
	Create(ctx context.Context, in CategoryInput) (*domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, id string, in CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// TaskService enforces task ownership itself: callers pass the ability of
// the requesting principal.
type TaskService interface {
	Create(ctx context.Context, in TaskInput, ownerID string) (*domain.Task, error)
	Get(ctx context.Context, ability policy.Ability, id string) (*domain.Task, error)
	List(ctx context.Context, ability policy.Ability) ([]*domain.Task, error)
	Update(ctx context.Context, ability policy.Ability, id string, in TaskInput) (*domain.Task, error)
	Delete(ctx context.Context, ability policy.Ability, id string) error
}
