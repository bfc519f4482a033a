package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopcart/internal/cache"
	"github.com/Skotchmaster/shopcart/internal/dbtest"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/repo"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: dbtest.New(t)}
}

func newRedisTotals(t *testing.T) (*cache.RedisTotals, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := cache.Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisTotals(client, time.Minute), mr
}

func mustProduct(t *testing.T, r *repo.GormRepo, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: 10, Category: models.DefaultCategory}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

// brokenCache fails every call.
type brokenCache struct{}

func (brokenCache) Get(context.Context, uuid.UUID) (models.CartTotals, int64, bool, error) {
	return models.CartTotals{}, 0, false, errors.New("cache down")
}
func (brokenCache) Set(context.Context, uuid.UUID, int64, models.CartTotals) error {
	return errors.New("cache down")
}
func (brokenCache) Invalidate(context.Context, ...uuid.UUID) error {
	return errors.New("cache down")
}

// interleavedCache runs beforeSet once, between the store read and the
// cache write of ComputeTotal.
type interleavedCache struct {
	*cache.RedisTotals
	beforeSet func()
}

func (c *interleavedCache) Set(ctx context.Context, userID uuid.UUID, version int64, totals models.CartTotals) error {
	if fn := c.beforeSet; fn != nil {
		c.beforeSet = nil
		fn()
	}
	return c.RedisTotals.Set(ctx, userID, version, totals)
}

// memIndex is an in-memory ProductIndex.
type memIndex struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]models.Product
	fail    error
	queries []string
}

func newMemIndex() *memIndex {
	return &memIndex{docs: map[uuid.UUID]models.Product{}}
}

func (m *memIndex) IndexProduct(_ context.Context, p models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.docs[p.ID] = p
	return nil
}

func (m *memIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.docs, id)
	return nil
}

func (m *memIndex) Search(_ context.Context, q string, size int) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	if m.fail != nil {
		return nil, 0, m.fail
	}
	out := []models.Product{}
	for _, p := range m.docs {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}
