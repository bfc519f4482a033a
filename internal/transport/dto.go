package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopcart/internal/models"
)

type CartDeltaRequest struct {
	UserID         uuid.UUID `json:"user_id"         validate:"required"`
	ProductID      uuid.UUID `json:"product_id"      validate:"required"`
	QuantityChange *int      `json:"quantity_change" validate:"required"`
}

type CartDeltaResponse struct {
	Outcome         string           `json:"outcome"`
	Item            *models.CartItem `json:"item,omitempty"`
	RemovedQuantity int              `json:"removed_quantity,omitempty"`
}

type RemoveLineResponse struct {
	ProductID       uuid.UUID `json:"product_id"`
	RemovedQuantity int       `json:"removed_quantity"`
}

type ClearCartResponse struct {
	Removed int64 `json:"removed"`
}

type CreateProductRequest struct {
	Name        string   `json:"name"        validate:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Image       string   `json:"image"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
	Category    string   `json:"category"`
}

type PatchProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Image       *string  `json:"image"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
	Category    *string  `json:"category"`
}

// SetStockRequest leaves range checking to the service so a negative
// value surfaces as the same error the service reports.
type SetStockRequest struct {
	Stock *int `json:"stock" validate:"required"`
}

type DeleteProductResponse struct {
	ID               uuid.UUID `json:"id"`
	RemovedCartLines int64     `json:"removed_cart_lines"`
}

type SearchResponse struct {
	Total int64            `json:"total"`
	Items []models.Product `json:"items"`
}

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}
