package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"promptregistry/internal/prompt/model"
	"promptregistry/pkg/apperrors"
)

// MemoryStore keeps prompts in process memory. It enforces the same
// constraints as the prompts table: one active row per name and unique
// (name, version) pairs.
type MemoryStore struct {
	// txMu serializes writers; mu guards the committed table.
	txMu      sync.Mutex
	mu        sync.RWMutex
	committed *memTable
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{committed: &memTable{
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WithNameLock hands fn a private copy of the table. The copy replaces the
// committed table only when fn succeeds, so readers never see a partial write.
func (s *MemoryStore) WithNameLock(ctx context.Context, name string, fn func(q Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	staged := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(staged); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = staged
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) FindActiveByName(ctx context.Context, name string) (*model.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.FindActiveByName(ctx, name)
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (*model.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.FindByID(ctx, id)
}

func (s *MemoryStore) FindLatestVersionByName(ctx context.Context, name string) (*model.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.FindLatestVersionByName(ctx, name)
}

func (s *MemoryStore) FindActiveByCategory(ctx context.Context, category string) ([]model.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.FindActiveByCategory(ctx, category)
}

func (s *MemoryStore) FindAllActive(ctx context.Context) ([]model.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.FindAllActive(ctx)
}

func (s *MemoryStore) FindAllVersionsByName(ctx context.Context, name string) ([]model.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.FindAllVersionsByName(ctx, name)
}

// Insert outside WithNameLock behaves like an autocommit statement.
func (s *MemoryStore) Insert(ctx context.Context, p *model.Prompt) (*model.Prompt, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed.Insert(ctx, p)
}

func (s *MemoryStore) Update(ctx context.Context, p *model.Prompt) (*model.Prompt, error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed.Update(ctx, p)
}

// memTable is one version of the table. It is not safe for concurrent use;
// MemoryStore supplies the locking.
type memTable struct {
	rows   []model.Prompt
	nextID int64
	now    func() time.Time
}

var _ Querier = (*memTable)(nil)

func (t *memTable) clone() *memTable {
	return &memTable{
		rows:   append([]model.Prompt(nil), t.rows...),
		nextID: t.nextID,
		now:    t.now,
	}
}

func (t *memTable) FindActiveByName(_ context.Context, name string) (*model.Prompt, error) {
	return t.findOne(func(p model.Prompt) bool { return p.Name == name && p.Active }), nil
}

func (t *memTable) FindByID(_ context.Context, id int64) (*model.Prompt, error) {
	return t.findOne(func(p model.Prompt) bool { return p.ID == id }), nil
}

func (t *memTable) FindLatestVersionByName(ctx context.Context, name string) (*model.Prompt, error) {
	versions, err := t.FindAllVersionsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return &versions[0], nil
}

func (t *memTable) FindActiveByCategory(_ context.Context, category string) ([]model.Prompt, error) {
	prompts := t.filter(func(p model.Prompt) bool { return p.Category == category && p.Active })
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Name < prompts[j].Name })
	return prompts, nil
}

func (t *memTable) FindAllActive(_ context.Context) ([]model.Prompt, error) {
	prompts := t.filter(func(p model.Prompt) bool { return p.Active })
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Name < prompts[j].Name })
	return prompts, nil
}

func (t *memTable) FindAllVersionsByName(_ context.Context, name string) ([]model.Prompt, error) {
	prompts := t.filter(func(p model.Prompt) bool { return p.Name == name })
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Version > prompts[j].Version })
	return prompts, nil
}

func (t *memTable) Insert(_ context.Context, p *model.Prompt) (*model.Prompt, error) {
	for _, row := range t.rows {
		if row.Name != p.Name {
			continue
		}
		if p.Active && row.Active {
			return nil, fmt.Errorf("%w: prompt with name '%s' already exists", apperrors.ErrAlreadyExists, p.Name)
		}
		if row.Version == p.Version {
			return nil, fmt.Errorf("%w: prompt '%s' version %d already exists", apperrors.ErrAlreadyExists, p.Name, p.Version)
		}
	}

	saved := *p
	saved.ID = t.nextID
	saved.CreatedAt = t.now()
	saved.UpdatedAt = saved.CreatedAt
	t.nextID++
	t.rows = append(t.rows, saved)
	return &saved, nil
}

func (t *memTable) Update(_ context.Context, p *model.Prompt) (*model.Prompt, error) {
	for i := range t.rows {
		if t.rows[i].ID != p.ID {
			continue
		}
		if p.Active && !t.rows[i].Active {
			for _, other := range t.rows {
				if other.Name == p.Name && other.Active {
					return nil, fmt.Errorf("%w: prompt with name '%s' already has an active version", apperrors.ErrAlreadyExists, p.Name)
				}
			}
		}
		t.rows[i].Active = p.Active
		t.rows[i].UpdatedAt = t.now()
		saved := t.rows[i]
		return &saved, nil
	}
	return nil, fmt.Errorf("%w: prompt with id '%d' not found", apperrors.ErrNotFound, p.ID)
}

func (t *memTable) findOne(match func(model.Prompt) bool) *model.Prompt {
	for _, row := range t.rows {
		if match(row) {
			found := row
			return &found
		}
	}
	return nil
}

func (t *memTable) filter(match func(model.Prompt) bool) []model.Prompt {
	out := []model.Prompt{}
	for _, row := range t.rows {
		if match(row) {
			out = append(out, row)
		}
	}
	return out
}
