package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/shopcart/internal/models"
)

// PricedLine is a cart line joined to the current price of its product.
type PricedLine struct {
	ProductID uuid.UUID
	Quantity  int
	Price     float64
}

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items := []models.CartItem{}
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementLine adds delta (> 0) to the line, creating it when absent.
// The increment is a single UPDATE so concurrent calls never lose a delta.
// If another caller creates the line between our UPDATE and INSERT, the
// unique index rejects our insert and the delta is applied to their row.
func (r *GormRepo) IncrementLine(ctx context.Context, userID, productID uuid.UUID, delta int) (*models.CartItem, bool, error) {
	item, found, err := r.bumpLine(ctx, userID, productID, delta)
	if err != nil || found {
		return item, false, err
	}

	line := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  delta,
	}
	createErr := r.DB.WithContext(ctx).Create(&line).Error
	if createErr == nil {
		return &line, true, nil
	}
	if !IsDuplicateKey(createErr) {
		return nil, false, createErr
	}

	item, found, err = r.bumpLine(ctx, userID, productID, delta)
	if err != nil {
		return nil, false, err
	}
	if !found {
		// the winning row was deleted again before we could add to it
		return nil, false, createErr
	}
	return item, false, nil
}

// bumpLine adds delta to an existing line and reloads it. found is false
// when there is no line to update.
func (r *GormRepo) bumpLine(ctx context.Context, userID, productID uuid.UUID, delta int) (*models.CartItem, bool, error) {
	var item models.CartItem
	found := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Update("quantity", gorm.Expr("quantity + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		found = true
		return tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return &item, true, nil
}

// DecrementLine applies delta (< 0) to an existing line under a row lock.
// When the quantity would reach zero or below the line is deleted and
// removed is true; prior is the quantity the line held before the call.
func (r *GormRepo) DecrementLine(ctx context.Context, userID, productID uuid.UUID, delta int) (item *models.CartItem, removed bool, prior int, err error) {
	var line models.CartItem

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&line).Error; err != nil {
			return err
		}
		prior = line.Quantity

		if line.Quantity+delta <= 0 {
			if err := tx.Delete(&line).Error; err != nil {
				return err
			}
			removed = true
			return nil
		}

		if err := tx.Model(&line).Update("quantity", gorm.Expr("quantity + ?", delta)).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", line.ID).First(&line).Error
	})
	if err != nil {
		return nil, false, 0, err
	}
	return &line, removed, prior, nil
}

// RemoveLine deletes the line whatever its quantity and returns that quantity.
func (r *GormRepo) RemoveLine(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	var line models.CartItem

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&line).Error; err != nil {
			return err
		}
		return tx.Delete(&line).Error
	})
	if err != nil {
		return 0, err
	}
	return line.Quantity, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// SetLineQuantity overwrites a line outright. It exists for fixtures and
// admin tooling; carts are otherwise only changed through deltas.
func (r *GormRepo) SetLineQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(&item).Error
	if err != nil {
		return nil, err
	}
	return r.GetLine(ctx, userID, productID)
}

// PricedLines joins the user's lines to products. Lines pointing at a
// product that no longer exists drop out of the inner join.
func (r *GormRepo) PricedLines(ctx context.Context, userID uuid.UUID) ([]PricedLine, error) {
	var rows []PricedLine
	err := r.DB.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.product_id, cart_items.quantity, products.price").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) UsersHoldingProduct(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("product_id = ?", productID).
		Distinct().
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
