package repositories

import (
	"context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"tably/internal/models/db_models"
)

type OrderRepositoryInterface interface {
	// MarkOrderPaid is the cascade write after a successful payment: the order
	// and any linked kitchen orders get their payment columns completed, in
	// one transaction.
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentMethod string) error
}

func NewOrderRepository(db *gorm.DB) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

type OrderRepository struct {
	db *gorm.DB
}

func (r OrderRepository) MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentMethod string) error {

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Model(&db_models.Order{}).
			Where("id = ?", orderID).
			Updates(map[string]interface{}{
				"payment_status": db_models.OrderPaymentCompleted,
				"payment_method": paymentMethod,
			}).Error; err != nil {
			return err
		}

		return tx.WithContext(ctx).
			Model(&db_models.KitchenOrder{}).
			Where("order_id = ?", orderID).
			Update("payment_status", db_models.OrderPaymentCompleted).Error
	})
}
