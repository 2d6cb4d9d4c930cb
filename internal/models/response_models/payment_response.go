package response_models

import "github.com/google/uuid"

// PaymentIssuance is what the table/POS screen needs to render a QR.
// TransactionID is nil on the static fallback: that path has no provider
// round trip and cannot be reconciled automatically.
type PaymentIssuance struct {
	TransactionID   *uuid.UUID `json:"transaction_id,omitempty"`
	ProviderOrderID string     `json:"provider_order_id,omitempty"`
	QRPayload       string     `json:"qr_payload"`
	QRImage         string     `json:"qr_image"` // base64 PNG
	Static          bool       `json:"static"`
	ExpiresAt       int64      `json:"expires_at,omitempty"` // unix seconds
}

const (
	StatusSourceLocal    = "local"
	StatusSourceProvider = "provider"
)

type PaymentStatusResult struct {
	ProviderOrderID string `json:"provider_order_id"`
	Status          string `json:"status"`
	Source          string `json:"source"` // "local" | "provider"
}

type CallbackAck struct {
	ProviderOrderID  string `json:"provider_order_id"`
	Status           string `json:"status"`
	AlreadyProcessed bool   `json:"already_processed"`
}
