package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderPaymentPending   = "pending"
	OrderPaymentCompleted = "completed"
)

// Order and KitchenOrder are owned by the ordering module; the payments core
// only writes their payment columns when a gateway result lands.
type Order struct {
	BaseModel
	RestaurantID uuid.UUID `gorm:"index"`
	TableLabel   string

	Total         decimal.Decimal `gorm:"type:numeric(12,2)"`
	PaymentStatus string          `gorm:"index"`
	PaymentMethod string
}

type KitchenOrder struct {
	BaseModel
	OrderID       uuid.UUID `gorm:"index"`
	PaymentStatus string
}
