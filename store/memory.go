package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pearl_backend/models"
)

var _ Store = (*Memory)(nil)

type Memory struct {
	mu       sync.RWMutex
	recipes  map[string]models.Recipe
	comments map[string][]models.Comment
	likes    map[string]models.Like

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		recipes:  make(map[string]models.Recipe),
		comments: make(map[string][]models.Comment),
		likes:    make(map[string]models.Like),
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source, for tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) List(ctx context.Context) ([]models.Recipe, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Recipe, 0, len(m.recipes))
	for _, r := range m.recipes {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (models.Recipe, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[id]
	if !ok {
		return models.Recipe{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) Create(ctx context.Context, form models.RecipeForm) (models.Recipe, error) {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	r := models.Recipe{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	form.Apply(&r)
	m.recipes[r.ID] = r
	return r, nil
}

func (m *Memory) Update(ctx context.Context, id string, form models.RecipeForm) (models.Recipe, error) {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[id]
	if !ok {
		return models.Recipe{}, ErrNotFound
	}
	form.Apply(&r)
	r.UpdatedAt = m.now().UTC()
	m.recipes[id] = r
	return r, nil
}

func (m *Memory) UpdateField(ctx context.Context, id, field, value string) error {
	_ = ctx

	if !models.EditableFields[field] {
		return ErrFieldNotAllowed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[id]
	if !ok {
		return ErrNotFound
	}
	r.SetField(field, value)
	r.UpdatedAt = m.now().UTC()
	m.recipes[id] = r
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(m.recipes, id)
	delete(m.comments, id)
	for k, l := range m.likes {
		if l.RecipeID == id {
			delete(m.likes, k)
		}
	}
	return nil
}

func (m *Memory) IncrementViews(ctx context.Context, id string) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[id]
	if !ok {
		return ErrNotFound
	}
	r.ViewCount++
	m.recipes[id] = r
	return nil
}

func (m *Memory) ListComments(ctx context.Context, recipeID string) ([]models.Comment, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.comments[recipeID]
	out := make([]models.Comment, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out, nil
}

func (m *Memory) AddComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipes[c.RecipeID]; !ok {
		return models.Comment{}, ErrNotFound
	}
	c.ID = uuid.New().String()
	c.CreatedAt = m.now().UTC()
	m.comments[c.RecipeID] = append(m.comments[c.RecipeID], c)
	return c, nil
}

func (m *Memory) CountComments(ctx context.Context, recipeID string) (int, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.comments[recipeID]), nil
}

func (m *Memory) CountLikes(ctx context.Context, recipeID string) (int, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, l := range m.likes {
		if l.RecipeID == recipeID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) HasLiked(ctx context.Context, recipeID, fingerprint string) (bool, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.likes[likeID(recipeID, fingerprint)]
	return ok, nil
}

func (m *Memory) Like(ctx context.Context, recipeID, fingerprint string) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recipes[recipeID]; !ok {
		return ErrNotFound
	}
	id := likeID(recipeID, fingerprint)
	if _, ok := m.likes[id]; ok {
		return ErrDuplicateLike
	}
	m.likes[id] = models.Like{
		ID:                 id,
		RecipeID:           recipeID,
		BrowserFingerprint: fingerprint,
		CreatedAt:          m.now().UTC(),
	}
	return nil
}

func (m *Memory) Unlike(ctx context.Context, recipeID, fingerprint string) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.likes, likeID(recipeID, fingerprint))
	return nil
}
