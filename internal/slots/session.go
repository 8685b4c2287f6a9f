package slots

import (
	"context"
	"fmt"
	"sync"
)

// Repository loads and saves the whole store. Implementations decide how the
// three collections are laid out on their medium.
type Repository interface {
	Load(ctx context.Context) (*Store, error)
	Save(ctx context.Context, store *Store) error
}

// Session serialises every load-mutate-save cycle against a Repository so
// that concurrent callers never interleave their read-modify-write steps.
type Session struct {
	mu   sync.Mutex
	repo Repository
}

func NewSession(repo Repository) *Session {
	return &Session{repo: repo}
}

// Update loads the store, runs fn and saves the result. Nothing is saved
// when fn returns an error.
func (s *Session) Update(ctx context.Context, fn func(*Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	if err := fn(store); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, store); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	return nil
}

// Read loads the store and hands it to fn without saving.
func (s *Session) Read(ctx context.Context, fn func(*Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	return fn(store)
}

// Exclusive runs fn while holding the session lock, for maintenance work
// that talks to the repository directly.
func (s *Session) Exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// MemoryRepository keeps a private copy of the store in memory.
type MemoryRepository struct {
	mu    sync.Mutex
	store *Store
	saves int
}

func NewMemoryRepository(seed *Store) *MemoryRepository {
	if seed == nil {
		seed = NewStore()
	}
	return &MemoryRepository{store: seed.Clone()}
}

func (r *MemoryRepository) Load(ctx context.Context) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Clone(), nil
}

func (r *MemoryRepository) Save(ctx context.Context, store *Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = store.Clone()
	r.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}
