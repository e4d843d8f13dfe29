package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	FullName     string    `gorm:"not null"                   json:"fullName"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	PhoneNumber  string    `                                  json:"phoneNumber"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	Role         string    `gorm:"not null;default:user"      json:"role"`
	CreatedAt    time.Time `                                  json:"createdAt"`
	UpdatedAt    time.Time `                                  json:"updatedAt"`
}

type Category struct {
	ID            uint          `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name          string        `gorm:"uniqueIndex;not null"      json:"name"`
	Description   string        `                                 json:"description"`
	ImageURL      string        `                                 json:"imageUrl"`
	SubCategories []SubCategory `gorm:"constraint:OnDelete:CASCADE" json:"subCategories"`
	CreatedAt     time.Time     `                                 json:"createdAt"`
}

type SubCategory struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	CategoryID uint   `gorm:"index;not null"            json:"categoryId"`
	Name       string `gorm:"not null"                  json:"name"`
}

type Product struct {
	ID            uint                        `gorm:"primaryKey;autoIncrement"      json:"id"`
	Name          string                      `gorm:"not null"                      json:"name"`
	Description   string                      `                                     json:"description"`
	Price         decimal.Decimal             `gorm:"type:decimal(12,2);not null"   json:"price"`
	StockQuantity uint                        `gorm:"not null;default:0"            json:"stockQuantity"`
	CategoryID    uint                        `gorm:"index;not null"                json:"categoryId"`
	SubCategoryID uint                        `gorm:"index"                         json:"subCategoryId"`
	Sizes         datatypes.JSONSlice[string] `                                     json:"sizes"`
	Colors        datatypes.JSONSlice[string] `                                     json:"colors"`
	Images        datatypes.JSONSlice[string] `                                     json:"images"`
	CreatedAt     time.Time                   `                                     json:"createdAt"`
	UpdatedAt     time.Time                   `                                     json:"updatedAt"`
}

// ImageURL is the cover image used for cart and order snapshots.
func (p Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type ProductReview struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	ProductID uint      `gorm:"index;not null"            json:"productId"`
	UserID    uint      `gorm:"index;not null"            json:"userId"`
	UserName  string    `                                 json:"userName"`
	Rating    int       `gorm:"not null"                  json:"rating"`
	Comment   string    `                                 json:"comment"`
	CreatedAt time.Time `                                 json:"createdAt"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                 json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_wishlist_user_product"    json:"userId"`
	ProductID uint      `gorm:"uniqueIndex:idx_wishlist_user_product"    json:"productId"`
	CreatedAt time.Time `                                                json:"createdAt"`
}

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "OutForDelivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// OrderFlow is the forward path an order travels; Cancelled is outside it.
var OrderFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

type Order struct {
	ID            uint               `gorm:"primaryKey;autoIncrement"         json:"id"`
	Reference     string             `gorm:"uniqueIndex;not null"             json:"reference"`
	UserID        uint               `gorm:"index;not null"                   json:"userId"`
	FullName      string             `gorm:"not null"                         json:"fullName"`
	PhoneNumber   string             `gorm:"not null"                         json:"phoneNumber"`
	Address       string             `gorm:"not null"                         json:"address"`
	City          string             `gorm:"not null"                         json:"city"`
	PaymentMethod string             `gorm:"not null"                         json:"paymentMethod"`
	Status        OrderStatus        `gorm:"type:varchar(32);not null;index"  json:"status"`
	Subtotal      decimal.Decimal    `gorm:"type:decimal(12,2);not null"      json:"subtotal"`
	ShippingCost  decimal.Decimal    `gorm:"type:decimal(12,2);not null"      json:"shippingCost"`
	Total         decimal.Decimal    `gorm:"type:decimal(12,2);not null"      json:"total"`
	Items         []OrderItem        `gorm:"constraint:OnDelete:CASCADE"      json:"items"`
	History       []OrderStatusEvent `gorm:"constraint:OnDelete:CASCADE"      json:"history,omitempty"`
	CreatedAt     time.Time          `                                        json:"createdAt"`
	UpdatedAt     time.Time          `                                        json:"updatedAt"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"       json:"id"`
	OrderID   uint            `gorm:"index;not null"                 json:"orderId"`
	ProductID uint            `gorm:"index;not null"                 json:"productId"`
	Name      string          `gorm:"not null"                       json:"name"`
	ImageURL  string          `                                      json:"imageUrl"`
	Size      string          `                                      json:"size"`
	Color     string          `                                      json:"color"`
	Quantity  uint            `gorm:"not null;check:quantity>0"      json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"    json:"unitPrice"`
	LineTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"    json:"lineTotal"`
}

type OrderStatusEvent struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"      json:"id"`
	OrderID   uint        `gorm:"index;not null"                json:"orderId"`
	Status    OrderStatus `gorm:"type:varchar(32);not null"     json:"status"`
	Note      string      `                                     json:"note,omitempty"`
	CreatedAt time.Time   `                                     json:"createdAt"`
}

type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "Pending"
	ReturnStatusApproved ReturnStatus = "Approved"
	ReturnStatusRejected ReturnStatus = "Rejected"
)

type ReturnRequest struct {
	ID            uint         `gorm:"primaryKey;autoIncrement"         json:"id"`
	OrderID       uint         `gorm:"index;not null"                   json:"orderId"`
	ProductID     uint         `gorm:"index;not null"                   json:"productId"`
	UserID        uint         `gorm:"index;not null"                   json:"userId"`
	Reason        string       `gorm:"not null"                         json:"reason"`
	Condition     string       `gorm:"not null"                         json:"condition"`
	Description   string       `                                        json:"description"`
	ImageURL      string       `                                        json:"imageUrl"`
	TermsAccepted bool         `gorm:"not null"                         json:"termsAccepted"`
	Status        ReturnStatus `gorm:"type:varchar(16);not null;index"  json:"status"`
	AdminNote     string       `                                        json:"adminNote,omitempty"`
	CreatedAt     time.Time    `                                        json:"createdAt"`
	UpdatedAt     time.Time    `                                        json:"updatedAt"`
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&SubCategory{},
		&Product{},
		&ProductReview{},
		&WishlistItem{},
		&Order{},
		&OrderItem{},
		&OrderStatusEvent{},
		&ReturnRequest{},
	}
}
