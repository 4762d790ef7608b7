package api

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
)

// In-memory stores backing the router tests.

type memUsers struct {
	mu   sync.Mutex
	byID map[string]domain.User
	seq  int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]domain.User{}} }

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == u.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	m.seq++
	c := *u
	c.ID = "u" + strconv.Itoa(m.seq)
	m.byID[c.ID] = c
	return &c, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) List(_ context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.User, 0, len(m.byID))
	for _, u := range m.byID {
		u := u
		out = append(out, &u)
	}
	return out, nil
}

func (m *memUsers) write(id string, fn func(u *domain.User) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	m.byID[id] = u
	return nil
}

func (m *memUsers) MarkVerified(_ context.Context, id string, at time.Time) error {
	return m.write(id, func(u *domain.User) error {
		u.MarkVerified()
		u.UpdatedAt = at
		return nil
	})
}

func (m *memUsers) SetLoginCode(_ context.Context, id, passwordHash, code string, expires, at time.Time) error {
	return m.write(id, func(u *domain.User) error {
		if u.PasswordHash != passwordHash {
			return domain.ErrInvalidCredentials
		}
		u.LoginCode, u.LoginCodeExpires, u.UpdatedAt = code, expires, at
		return nil
	})
}

func (m *memUsers) ConsumeLoginCode(_ context.Context, id, code, refreshToken string, at time.Time) error {
	return m.write(id, func(u *domain.User) error {
		if u.LoginCode == "" || u.LoginCode != code {
			return domain.ErrInvalidCode
		}
		u.ClearLoginCode()
		u.RefreshToken, u.UpdatedAt = refreshToken, at
		return nil
	})
}

func (m *memUsers) RotateRefreshToken(_ context.Context, id, current, next string, at time.Time) error {
	return m.write(id, func(u *domain.User) error {
		if u.RefreshToken == "" || u.RefreshToken != current {
			return domain.ErrInvalidToken
		}
		u.RefreshToken, u.UpdatedAt = next, at
		return nil
	})
}

func (m *memUsers) SetPassword(_ context.Context, id, passwordHash string, at time.Time) error {
	return m.write(id, func(u *domain.User) error {
		u.PasswordHash, u.RefreshToken, u.UpdatedAt = passwordHash, "", at
		return nil
	})
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) ClearExpiredLoginCodes(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memProducts struct {
	mu   sync.Mutex
	byID map[string]domain.Product
	seq  int
}

func (m *memProducts) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := *p
	c.ID = "p" + strconv.Itoa(m.seq)
	m.byID[c.ID] = c
	return &c, nil
}

func (m *memProducts) FindByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *memProducts) List(_ context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Product{}
	for _, p := range m.byID {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (m *memProducts) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[p.ID] = *p
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.byID, id)
	return nil
}

type memCategories struct {
	mu   sync.Mutex
	byID map[string]domain.Category
	seq  int
}

func (m *memCategories) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	x := *c
	x.ID = "c" + strconv.Itoa(m.seq)
	m.byID[x.ID] = x
	return &x, nil
}

func (m *memCategories) FindByID(_ context.Context, id string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}

func (m *memCategories) List(_ context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Category{}
	for _, c := range m.byID {
		c := c
		out = append(out, &c)
	}
	return out, nil
}

func (m *memCategories) Update(_ context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[c.ID] = *c
	return nil
}

func (m *memCategories) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(m.byID, id)
	return nil
}

type memTasks struct {
	mu   sync.Mutex
	byID map[string]domain.Task
	seq  int
}

func (m *memTasks) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := *t
	c.ID = "t" + strconv.Itoa(m.seq)
	m.byID[c.ID] = c
	return &c, nil
}

func (m *memTasks) FindByID(_ context.Context, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (m *memTasks) List(_ context.Context, ownerID string) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range m.byID {
		if ownerID != "" && t.OwnerID != ownerID {
			continue
		}
		t := t
		out = append(out, &t)
	}
	return out, nil
}

func (m *memTasks) Update(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[t.ID] = *t
	return nil
}

func (m *memTasks) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(m.byID, id)
	return nil
}

// inbox records notifications synchronously.
type inbox struct {
	mu  sync.Mutex
	all []ports.Notification
}

func (i *inbox) Notify(_ context.Context, n ports.Notification) {
	i.mu.Lock()
	i.all = append(i.all, n)
	i.mu.Unlock()
}

func (i *inbox) lastFor(recipient string) ports.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	for j := len(i.all) - 1; j >= 0; j-- {
		if i.all[j].Recipient == recipient {
			return i.all[j]
		}
	}
	return ports.Notification{}
}
