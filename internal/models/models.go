package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	DefaultCategory = "general"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"           json:"id"`
	Name         string    `gorm:"not null"                       json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"           json:"email"`
	PasswordHash string    `gorm:"not null"                       json:"-"`
	Role         string    `gorm:"not null;default:customer"      json:"role"`
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"           json:"id"`
	Name        string    `gorm:"not null"                       json:"name"`
	Description string    `gorm:"not null;default:''"            json:"description"`
	Price       float64   `gorm:"not null;check:price >= 0"      json:"price"`
	Image       string    `gorm:"not null;default:''"            json:"image"`
	Stock       int       `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Category    string    `gorm:"not null;default:general"       json:"category"`
}

// CartItem is a single (user, product) line of a cart. Rows never hold a
// quantity below one: a line that would drop to zero is deleted instead.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                              json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null"   json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null"   json:"product_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0"             json:"quantity"`
}

type CartTotals struct {
	TotalItems int     `json:"total_items"`
	TotalPrice float64 `json:"total_price"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

// All lists every table the service migrates at startup.
func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}}
}
