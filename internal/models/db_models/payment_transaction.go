package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentTransaction is one payment attempt against the gateway. Records are
// never deleted; terminal rows stay behind as the audit trail.
type PaymentTransaction struct {
	BaseModel
	RestaurantID uuid.UUID  `gorm:"index"`
	OrderID      *uuid.UUID `gorm:"index"` // nullable, QR may precede the order
	TableLabel   string

	// Our identifier on the provider side; immutable once assigned.
	ProviderOrderID string `gorm:"uniqueIndex"`
	ProviderQRID    string
	ProviderTxnID   string

	Amount decimal.Decimal `gorm:"type:numeric(12,2)"`
	Status PaymentStatus   `gorm:"index"`

	// Opaque blobs from the QR-create response (absent on static fallback).
	QRPayload string
	QRImage   string

	// Last callback observed, kept verbatim for audit.
	RawCallbackPayload datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	// Unix seconds; CompletedAt is set exactly when Status leaves pending.
	ExpiresAt   *int64
	CompletedAt *int64
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}
