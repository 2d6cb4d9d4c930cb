package repositories_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tably/internal/models/db_models"
	"tably/internal/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&db_models.PaymentConfig{},
		&db_models.PaymentTransaction{},
		&db_models.Order{},
		&db_models.KitchenOrder{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func pendingTransaction(restaurantID uuid.UUID, providerOrderID string) *db_models.PaymentTransaction {
	expiry := int64(1900000000)
	return &db_models.PaymentTransaction{
		RestaurantID:    restaurantID,
		ProviderOrderID: providerOrderID,
		Amount:          decimal.RequireFromString("250.00"),
		Status:          db_models.PaymentStatusPending,
		QRPayload:       "upi://pay?x=1",
		ExpiresAt:       &expiry,
	}
}

func Test_PaymentTransactionRepository_CreateAndGet(t *testing.T) {
	assertions := assert.New(t)
	repo := repositories.NewPaymentTransactionRepository(newTestDB(t))
	ctx := context.Background()

	txn := pendingTransaction(uuid.New(), "ORD1001")
	assertions.NoError(repo.Create(ctx, txn))
	assertions.NotEqual(uuid.Nil, txn.ID)

	loaded, err := repo.GetByProviderOrderID(ctx, "ORD1001")
	assertions.NoError(err)
	assertions.NotNil(loaded)
	assertions.Equal(db_models.PaymentStatusPending, loaded.Status)
	assertions.True(loaded.Amount.Equal(decimal.RequireFromString("250.00")))
	assertions.Nil(loaded.CompletedAt)

	missing, err := repo.GetByProviderOrderID(ctx, "ORD-NOPE")
	assertions.NoError(err)
	assertions.Nil(missing)
}

func Test_PaymentTransactionRepository_UniqueProviderOrderID(t *testing.T) {
	assertions := assert.New(t)
	repo := repositories.NewPaymentTransactionRepository(newTestDB(t))
	ctx := context.Background()

	assertions.NoError(repo.Create(ctx, pendingTransaction(uuid.New(), "ORD2001")))
	assertions.Error(repo.Create(ctx, pendingTransaction(uuid.New(), "ORD2001")))
}

func Test_PaymentTransactionRepository_MarkTerminal(t *testing.T) {
	assertions := assert.New(t)
	repo := repositories.NewPaymentTransactionRepository(newTestDB(t))
	ctx := context.Background()

	assertions.NoError(repo.Create(ctx, pendingTransaction(uuid.New(), "ORD3001")))
	payload := datatypes.JSON([]byte(`{"STATUS":"TXN_SUCCESS"}`))

	t.Run("FirstWriterWins", func(t *testing.T) {
		applied, err := repo.MarkTerminal(ctx, "ORD3001", db_models.PaymentStatusSuccess, "TXN123", payload)
		assertions.NoError(err)
		assertions.True(applied)

		loaded, err := repo.GetByProviderOrderID(ctx, "ORD3001")
		assertions.NoError(err)
		assertions.Equal(db_models.PaymentStatusSuccess, loaded.Status)
		assertions.Equal("TXN123", loaded.ProviderTxnID)
		assertions.NotNil(loaded.CompletedAt)
	})

	t.Run("SecondWriterLoses", func(t *testing.T) {
		// The losing side of the webhook/poller race must see zero rows
		// affected, even when it carries a different terminal outcome.
		applied, err := repo.MarkTerminal(ctx, "ORD3001", db_models.PaymentStatusFailed, "TXN999", payload)
		assertions.NoError(err)
		assertions.False(applied)

		loaded, err := repo.GetByProviderOrderID(ctx, "ORD3001")
		assertions.NoError(err)
		assertions.Equal(db_models.PaymentStatusSuccess, loaded.Status)
		assertions.Equal("TXN123", loaded.ProviderTxnID)
	})

	t.Run("RejectsNonTerminalStatus", func(t *testing.T) {
		_, err := repo.MarkTerminal(ctx, "ORD3001", db_models.PaymentStatusPending, "", payload)
		assertions.Error(err)
	})
}

func Test_PaymentTransactionRepository_RecordCallback(t *testing.T) {
	assertions := assert.New(t)
	repo := repositories.NewPaymentTransactionRepository(newTestDB(t))
	ctx := context.Background()

	assertions.NoError(repo.Create(ctx, pendingTransaction(uuid.New(), "ORD4001")))

	payload := datatypes.JSON([]byte(`{"STATUS":"PENDING"}`))
	assertions.NoError(repo.RecordCallback(ctx, "ORD4001", "TXN456", payload))

	loaded, err := repo.GetByProviderOrderID(ctx, "ORD4001")
	assertions.NoError(err)
	assertions.Equal(db_models.PaymentStatusPending, loaded.Status)
	assertions.Equal("TXN456", loaded.ProviderTxnID)
	assertions.Nil(loaded.CompletedAt)
}

func Test_PaymentConfigRepository_GetActiveByRestaurant(t *testing.T) {
	assertions := assert.New(t)
	db := newTestDB(t)
	repo := repositories.NewPaymentConfigRepository(db)
	ctx := context.Background()

	restaurantID := uuid.New()
	assertions.NoError(db.Create(&db_models.PaymentConfig{
		RestaurantID: restaurantID,
		Gateway:      "paytm",
		MerchantID:   "TablyRest01",
		MerchantKey:  "0123456789abcdef-secret",
		IsActive:     true,
	}).Error)
	assertions.NoError(db.Create(&db_models.PaymentConfig{
		RestaurantID: uuid.New(),
		Gateway:      "paytm",
		IsActive:     false,
	}).Error)

	cfg, err := repo.GetActiveByRestaurant(ctx, restaurantID)
	assertions.NoError(err)
	assertions.NotNil(cfg)
	assertions.Equal("TablyRest01", cfg.MerchantID)

	none, err := repo.GetActiveByRestaurant(ctx, uuid.New())
	assertions.NoError(err)
	assertions.Nil(none)
}

func Test_OrderRepository_MarkOrderPaid(t *testing.T) {
	assertions := assert.New(t)
	db := newTestDB(t)
	repo := repositories.NewOrderRepository(db)
	ctx := context.Background()

	order := &db_models.Order{
		RestaurantID:  uuid.New(),
		TableLabel:    "T12",
		Total:         decimal.RequireFromString("250.00"),
		PaymentStatus: db_models.OrderPaymentPending,
	}
	assertions.NoError(db.Create(order).Error)
	assertions.NoError(db.Create(&db_models.KitchenOrder{
		OrderID:       order.ID,
		PaymentStatus: db_models.OrderPaymentPending,
	}).Error)

	assertions.NoError(repo.MarkOrderPaid(ctx, order.ID, "paytm_qr"))

	var reloaded db_models.Order
	assertions.NoError(db.First(&reloaded, "id = ?", order.ID).Error)
	assertions.Equal(db_models.OrderPaymentCompleted, reloaded.PaymentStatus)
	assertions.Equal("paytm_qr", reloaded.PaymentMethod)

	var kitchen db_models.KitchenOrder
	assertions.NoError(db.First(&kitchen, "order_id = ?", order.ID).Error)
	assertions.Equal(db_models.OrderPaymentCompleted, kitchen.PaymentStatus)
}
