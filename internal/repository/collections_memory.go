package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
)

// MemoryCollectionStorage serves collections loaded from YAML when no MongoDB is configured.
type MemoryCollectionStorage struct {
	mu          sync.RWMutex
	collections map[string]tsumego.Collection
}

func NewMemoryCollectionStorage(collections ...tsumego.Collection) *MemoryCollectionStorage {
	m := &MemoryCollectionStorage{collections: make(map[string]tsumego.Collection, len(collections))}
	for _, c := range collections {
		m.collections[c.Slug] = c
	}
	return m
}

func (m *MemoryCollectionStorage) Upsert(_ context.Context, collection tsumego.Collection) error {
	if err := collection.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection.Slug] = collection
	return nil
}

func (m *MemoryCollectionStorage) List(_ context.Context) ([]tsumego.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	collections := make([]tsumego.Collection, 0, len(m.collections))
	for _, c := range m.collections {
		collections = append(collections, c)
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].Slug < collections[j].Slug })
	return collections, nil
}

func (m *MemoryCollectionStorage) GetBySlug(_ context.Context, slug string) (tsumego.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[slug]
	if !ok {
		return c, fmt.Errorf("%w: %s", errors.ErrCollectionNotFound, slug)
	}
	return c, nil
}

func (m *MemoryCollectionStorage) GetTsumego(ctx context.Context, slug, tsumegoSlug string) (tsumego.Collection, tsumego.Tsumego, error) {
	collection, err := m.GetBySlug(ctx, slug)
	if err != nil {
		return collection, tsumego.Tsumego{}, err
	}
	found, ok := collection.TsumegoBySlug(tsumegoSlug)
	if !ok {
		return collection, found, fmt.Errorf("%w: %s/%s", errors.ErrTsumegoNotFound, slug, tsumegoSlug)
	}
	return collection, found, nil
}
