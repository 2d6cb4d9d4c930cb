package request_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateQRPaymentRequest struct {
	RestaurantID uuid.UUID       `json:"restaurant_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	OrderID      *uuid.UUID      `json:"order_id"`
	TableLabel   string          `json:"table_label"`
	Description  string          `json:"description"`
}
