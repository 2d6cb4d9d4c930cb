package db_models

import (
	"github.com/google/uuid"
)

// PaymentConfig is the per-restaurant gateway setup, managed by the settings
// screens. The payments core only ever reads it.
type PaymentConfig struct {
	BaseModel
	RestaurantID uuid.UUID `gorm:"index"`
	Gateway      string    `gorm:"index"` // "paytm"

	MerchantID  string
	MerchantKey string // signing secret; first 16 bytes feed the cipher
	DisplayName string // payee name rendered into static payment URIs
	Sandbox     bool

	// Fallback UPI address for restaurants without dynamic QR credentials.
	StaticPaymentAddress string

	IsActive bool `gorm:"index"`
}
