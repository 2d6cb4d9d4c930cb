package repositories

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"tably/internal/models/db_models"
)

type PaymentConfigRepositoryInterface interface {
	GetActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*db_models.PaymentConfig, error)
}

func NewPaymentConfigRepository(db *gorm.DB) PaymentConfigRepositoryInterface {
	return &PaymentConfigRepository{db: db}
}

type PaymentConfigRepository struct {
	db *gorm.DB
}

func (r PaymentConfigRepository) GetActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) (*db_models.PaymentConfig, error) {

	var config db_models.PaymentConfig
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND is_active = TRUE", restaurantID).
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}
	return &config, nil
}
