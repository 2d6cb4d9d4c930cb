package repositories

import (
	"context"
	"errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"tably/internal/models/db_models"
	"tably/pkg/utils"
)

type PaymentTransactionRepositoryInterface interface {
	Create(ctx context.Context, txn *db_models.PaymentTransaction) error
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*db_models.PaymentTransaction, error)

	// MarkTerminal moves a pending record to a terminal status. The write is
	// conditional on the record still being pending, so concurrent webhook and
	// poller deliveries cannot both win; the loser sees applied == false.
	MarkTerminal(ctx context.Context, providerOrderID string, status db_models.PaymentStatus, providerTxnID string, rawPayload datatypes.JSON) (applied bool, err error)

	// RecordCallback stores callback evidence on a still-pending record
	// without transitioning it.
	RecordCallback(ctx context.Context, providerOrderID string, providerTxnID string, rawPayload datatypes.JSON) error
}

func NewPaymentTransactionRepository(db *gorm.DB) PaymentTransactionRepositoryInterface {
	return &PaymentTransactionRepository{db: db}
}

type PaymentTransactionRepository struct {
	db *gorm.DB
}

func (r PaymentTransactionRepository) Create(ctx context.Context, txn *db_models.PaymentTransaction) error {

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(txn).Error; err != nil {
			return err
		}

		return nil
	})

}

func (r PaymentTransactionRepository) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*db_models.PaymentTransaction, error) {

	var txn db_models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("provider_order_id = ?", providerOrderID).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}
	return &txn, nil
}

func (r PaymentTransactionRepository) MarkTerminal(ctx context.Context, providerOrderID string, status db_models.PaymentStatus, providerTxnID string, rawPayload datatypes.JSON) (bool, error) {

	if !status.Terminal() {
		return false, errors.New("mark terminal called with non-terminal status")
	}

	result := r.db.WithContext(ctx).
		Model(&db_models.PaymentTransaction{}).
		Where("provider_order_id = ? AND status = ?", providerOrderID, db_models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":               status,
			"provider_txn_id":      providerTxnID,
			"raw_callback_payload": rawPayload,
			"completed_at":         utils.NowUnixSeconds(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r PaymentTransactionRepository) RecordCallback(ctx context.Context, providerOrderID string, providerTxnID string, rawPayload datatypes.JSON) error {

	return r.db.WithContext(ctx).
		Model(&db_models.PaymentTransaction{}).
		Where("provider_order_id = ? AND status = ?", providerOrderID, db_models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"provider_txn_id":      providerTxnID,
			"raw_callback_payload": rawPayload,
		}).Error
}
