package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/repo"
)

func TestComputeTotal_EmptyCart(t *testing.T) {
	svc := &CartService{Repo: newRepo(t)}

	totals, err := svc.ComputeTotal(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 0, TotalPrice: 0}, totals)
}

func TestApplyDelta_CreateThenIncrement(t *testing.T) {
	ctx := context.Background()
	svc := &CartService{Repo: newRepo(t)}
	u, p := uuid.New(), uuid.New()

	res, err := svc.ApplyDelta(ctx, u, p, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, 1, res.Line.Quantity)

	res, err = svc.ApplyDelta(ctx, u, p, 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, 2, res.Line.Quantity)
}

func TestApplyDelta_DecrementToZeroRemoves(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	u, p := uuid.New(), uuid.New()

	_, err := svc.ApplyDelta(ctx, u, p, 1)
	require.NoError(t, err)

	res, err := svc.ApplyDelta(ctx, u, p, -1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, res.Outcome)
	assert.Equal(t, 1, res.RemovedQuantity)

	_, err = r.GetLine(ctx, u, p)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplyDelta_OvershootRemovesWithPriorQuantity(t *testing.T) {
	ctx := context.Background()
	svc := &CartService{Repo: newRepo(t)}
	u, p := uuid.New(), uuid.New()

	_, err := svc.ApplyDelta(ctx, u, p, 3)
	require.NoError(t, err)

	res, err := svc.ApplyDelta(ctx, u, p, -1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, 2, res.Line.Quantity)

	res, err = svc.ApplyDelta(ctx, u, p, -10)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, res.Outcome)
	assert.Equal(t, 2, res.RemovedQuantity)
}

func TestApplyDelta_Errors(t *testing.T) {
	t.Parallel()
	u, p := uuid.New(), uuid.New()

	cases := []struct {
		name    string
		user    uuid.UUID
		product uuid.UUID
		delta   int
		want    error
	}{
		{"zero delta", u, p, 0, ErrInvalidArgument},
		{"nil user", uuid.Nil, p, 1, ErrInvalidArgument},
		{"nil product", u, uuid.Nil, 1, ErrInvalidArgument},
		{"decrement absent", u, p, -1, ErrNotFound},
		{"delta too large", u, p, MaxQuantityChange + 1, ErrInvalidArgument},
		{"delta too small", u, p, -MaxQuantityChange - 1, ErrInvalidArgument},
		{"max int", u, p, math.MaxInt, ErrInvalidArgument},
		{"min int", u, p, math.MinInt, ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := &CartService{Repo: newRepo(t)}
			_, err := svc.ApplyDelta(context.Background(), tc.user, tc.product, tc.delta)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestApplyDelta_RoundTripLeavesNoContribution(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	u := uuid.New()
	p := mustProduct(t, r, "pen", 1.5)

	_, err := svc.ApplyDelta(ctx, u, p.ID, 1)
	require.NoError(t, err)
	_, err = svc.ApplyDelta(ctx, u, p.ID, -1)
	require.NoError(t, err)

	view, err := svc.GetCart(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.TotalItems)
	assert.Equal(t, 0.0, view.TotalPrice)
}

func TestComputeTotal_Scenario(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	u1 := uuid.New()
	p1 := mustProduct(t, r, "P1", 10.00)
	p2 := mustProduct(t, r, "P2", 5.00)

	_, err := r.SetLineQuantity(ctx, u1, p1.ID, 2)
	require.NoError(t, err)

	totals, err := svc.ComputeTotal(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 2, TotalPrice: 20.00}, totals)

	_, err = svc.ApplyDelta(ctx, u1, p2.ID, 1)
	require.NoError(t, err)
	totals, err = svc.ComputeTotal(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 3, TotalPrice: 25.00}, totals)

	removed, err := svc.RemoveLine(ctx, u1, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	totals, err = svc.ComputeTotal(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 1, TotalPrice: 5.00}, totals)
}

func TestComputeTotal_DecimalSum(t *testing.T) {
	lines := []repo.PricedLine{
		{Quantity: 3, Price: 0.1},
		{Quantity: 1, Price: 0.2},
	}
	assert.Equal(t, models.CartTotals{TotalItems: 4, TotalPrice: 0.5}, sumLines(lines))
	assert.Equal(t, models.CartTotals{}, sumLines(nil))
}

func TestRemoveLine_Absent(t *testing.T) {
	svc := &CartService{Repo: newRepo(t)}

	_, err := svc.RemoveLine(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearCart_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := &CartService{Repo: newRepo(t)}
	u := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := svc.ApplyDelta(ctx, u, uuid.New(), i+1)
		require.NoError(t, err)
	}
	other := uuid.New()
	_, err := svc.ApplyDelta(ctx, other, uuid.New(), 1)
	require.NoError(t, err)

	n, err := svc.ClearCart(ctx, u)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = svc.ClearCart(ctx, u)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	view, err := svc.GetCart(ctx, other)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

// The in-memory store serialises these callers on one connection, so this
// only checks that every delta is applied once. The lost create race is
// exercised in the repo tests.
func TestApplyDelta_ParallelCallersAllApply(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r}
	u, p := uuid.New(), uuid.New()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ApplyDelta(ctx, u, p, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	line, err := r.GetLine(ctx, u, p)
	require.NoError(t, err)
	assert.Equal(t, workers, line.Quantity)
}

func TestComputeTotal_UsesAndInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	totals, mr := newRedisTotals(t)
	svc := &CartService{Repo: r, Cache: totals}
	u := uuid.New()
	p := mustProduct(t, r, "cup", 4)

	_, err := svc.ApplyDelta(ctx, u, p.ID, 2)
	require.NoError(t, err)

	got, err := svc.ComputeTotal(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 2, TotalPrice: 8}, got)
	assert.True(t, mr.Exists("cart:totals:"+u.String()))

	_, err = svc.ApplyDelta(ctx, u, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, mr.Exists("cart:totals:"+u.String()))

	got, err = svc.ComputeTotal(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 3, TotalPrice: 12}, got)
}

func TestComputeTotal_ChangeDuringComputeIsNotCachedStale(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	totals, mr := newRedisTotals(t)
	cached := &interleavedCache{RedisTotals: totals}
	svc := &CartService{Repo: r, Cache: cached}
	u := uuid.New()
	p := mustProduct(t, r, "book", 10)

	_, err := svc.ApplyDelta(ctx, u, p.ID, 1)
	require.NoError(t, err)

	cached.beforeSet = func() {
		_, err := svc.ApplyDelta(ctx, u, p.ID, 1)
		require.NoError(t, err)
	}

	// computed before the second delta committed
	got, err := svc.ComputeTotal(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 1, TotalPrice: 10}, got)
	assert.False(t, mr.Exists("cart:totals:"+u.String()))

	got, err = svc.ComputeTotal(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 2, TotalPrice: 20}, got)

	view, err := svc.GetCart(ctx, u)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, view.Items[0].Quantity, view.TotalItems)
}

func TestComputeTotal_CacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	svc := &CartService{Repo: r, Cache: brokenCache{}}
	u := uuid.New()
	p := mustProduct(t, r, "cup", 4)

	_, err := svc.ApplyDelta(ctx, u, p.ID, 1)
	require.NoError(t, err)

	got, err := svc.ComputeTotal(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, models.CartTotals{TotalItems: 1, TotalPrice: 4}, got)
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, storeError("op", nil))
	assert.ErrorIs(t, storeError("op", gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, storeError("op", fmt.Errorf("x: %w", gorm.ErrDuplicatedKey)), ErrConflict)

	boom := errors.New("connection reset")
	err := storeError("op", boom)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)
}
