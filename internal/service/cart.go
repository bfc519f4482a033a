package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/repo"
)

// TotalsCache stores computed totals per user. Get reports the user's
// cache version; Set must drop the value when the version has moved since,
// which Invalidate guarantees by bumping it.
type TotalsCache interface {
	Get(ctx context.Context, userID uuid.UUID) (models.CartTotals, int64, bool, error)
	Set(ctx context.Context, userID uuid.UUID, version int64, totals models.CartTotals) error
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}

// MaxQuantityChange bounds a single delta so quantity arithmetic in the
// store cannot overflow.
const MaxQuantityChange = 1_000_000

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeRemoved Outcome = "removed"
)

// DeltaResult describes the single ledger change made by ApplyDelta. For
// OutcomeRemoved, Line holds the deleted row and RemovedQuantity the
// quantity it held.
type DeltaResult struct {
	Outcome         Outcome
	Line            *models.CartItem
	RemovedQuantity int
}

type CartView struct {
	UserID uuid.UUID         `json:"user_id"`
	Items  []models.CartItem `json:"items"`
	models.CartTotals
}

type CartService struct {
	Repo  *repo.GormRepo
	Cache TotalsCache
}

func (s *CartService) ApplyDelta(ctx context.Context, userID, productID uuid.UUID, delta int) (*DeltaResult, error) {
	if err := checkIDs(userID, productID); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, fmt.Errorf("quantity change must be nonzero: %w", ErrInvalidArgument)
	}
	if delta > MaxQuantityChange || delta < -MaxQuantityChange {
		return nil, fmt.Errorf("quantity change must be between -%d and %d: %w", MaxQuantityChange, MaxQuantityChange, ErrInvalidArgument)
	}

	var res *DeltaResult
	if delta > 0 {
		item, created, err := s.Repo.IncrementLine(ctx, userID, productID, delta)
		if err != nil {
			return nil, storeError("increment cart line", err)
		}
		res = &DeltaResult{Outcome: OutcomeUpdated, Line: item}
		if created {
			res.Outcome = OutcomeCreated
		}
	} else {
		item, removed, prior, err := s.Repo.DecrementLine(ctx, userID, productID, delta)
		if err != nil {
			return nil, storeError("decrement cart line", err)
		}
		res = &DeltaResult{Outcome: OutcomeUpdated, Line: item}
		if removed {
			res.Outcome = OutcomeRemoved
			res.RemovedQuantity = prior
		}
	}

	s.invalidate(ctx, userID)
	return res, nil
}

// RemoveLine deletes the line regardless of quantity and returns the
// quantity it held.
func (s *CartService) RemoveLine(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	if err := checkIDs(userID, productID); err != nil {
		return 0, err
	}

	qty, err := s.Repo.RemoveLine(ctx, userID, productID)
	if err != nil {
		return 0, storeError("remove cart line", err)
	}

	s.invalidate(ctx, userID)
	return qty, nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("user id must be set: %w", ErrInvalidArgument)
	}

	n, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return 0, storeError("clear cart", err)
	}

	s.invalidate(ctx, userID)
	return n, nil
}

func (s *CartService) ComputeTotal(ctx context.Context, userID uuid.UUID) (models.CartTotals, error) {
	if userID == uuid.Nil {
		return models.CartTotals{}, fmt.Errorf("user id must be set: %w", ErrInvalidArgument)
	}
	l := logging.FromContext(ctx).With("svc", "cart.total")

	cacheable := false
	var version int64
	if s.Cache != nil {
		totals, v, ok, err := s.Cache.Get(ctx, userID)
		switch {
		case err != nil:
			l.Warn("totals_cache_get_failed", "user_id", userID, "error", err)
		case ok:
			return totals, nil
		default:
			cacheable, version = true, v
		}
	}

	lines, err := s.Repo.PricedLines(ctx, userID)
	if err != nil {
		return models.CartTotals{}, storeError("compute total", err)
	}
	totals := sumLines(lines)

	if cacheable {
		if err := s.Cache.Set(ctx, userID, version, totals); err != nil {
			l.Warn("totals_cache_set_failed", "user_id", userID, "error", err)
		}
	}
	return totals, nil
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id must be set: %w", ErrInvalidArgument)
	}

	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, storeError("get cart", err)
	}
	totals, err := s.ComputeTotal(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &CartView{UserID: userID, Items: items, CartTotals: totals}, nil
}

func sumLines(lines []repo.PricedLine) models.CartTotals {
	items := 0
	price := decimal.Zero
	for _, ln := range lines {
		items += ln.Quantity
		price = price.Add(decimal.NewFromFloat(ln.Price).Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}
	return models.CartTotals{TotalItems: items, TotalPrice: price.Round(2).InexactFloat64()}
}

func (s *CartService) invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if s.Cache == nil || len(userIDs) == 0 {
		return
	}
	if err := s.Cache.Invalidate(ctx, userIDs...); err != nil {
		logging.FromContext(ctx).Warn("totals_cache_invalidate_failed", "users", len(userIDs), "error", err)
	}
}

func checkIDs(userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id must be set: %w", ErrInvalidArgument)
	}
	if productID == uuid.Nil {
		return fmt.Errorf("product id must be set: %w", ErrInvalidArgument)
	}
	return nil
}
