package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/datatypes"

	"tably/internal/gateway/paytm"
	"tably/internal/models/db_models"
	"tably/internal/models/request_models"
	"tably/internal/models/response_models"
	"tably/internal/repositories"
	"tably/pkg/checksum"
	"tably/pkg/utils"
)

const (
	// Dynamic QRs are short-lived; the table screen re-issues when one lapses.
	qrExpiryWindow = 10 * time.Minute

	businessTypeDynamicQR = "UPI_QR_CODE"
	paymentMethodPaytmQR  = "paytm_qr"
)

type PaymentService interface {
	CreateDynamicPayment(ctx context.Context, req request_models.CreateQRPaymentRequest) (*response_models.PaymentIssuance, error)
	ProcessCallback(ctx context.Context, cb *paytm.Callback, rawPayload []byte) (*response_models.CallbackAck, error)
	CheckStatus(ctx context.Context, providerOrderID string, restaurantID uuid.UUID) (*response_models.PaymentStatusResult, error)
}

type paymentService struct {
	configs      repositories.PaymentConfigRepositoryInterface
	transactions repositories.PaymentTransactionRepositoryInterface
	orders       repositories.OrderRepositoryInterface
	gateway      *paytm.Client
}

// CreateDynamicPayment asks the gateway for a dynamic payment QR, records the
// pending transaction, and hands the QR back to the table screen. Restaurants
// without gateway credentials fall back to a locally rendered static QR.
func (p *paymentService) CreateDynamicPayment(ctx context.Context, req request_models.CreateQRPaymentRequest) (*response_models.PaymentIssuance, error) {
	cfg, err := p.configs.GetActiveByRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if cfg == nil {
		return nil, utils.ErrPaymentConfigMissing
	}

	if cfg.MerchantID == "" || cfg.MerchantKey == "" {
		if cfg.StaticPaymentAddress != "" {
			return p.createStaticPayment(cfg, req.Amount, req.TableLabel)
		}
		return nil, utils.ErrPaymentConfigMissing
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive, got %s", req.Amount)
	}

	providerOrderID := newProviderOrderID()
	expiresAt := time.Now().Add(qrExpiryWindow)

	creds := paytm.Credentials{
		MerchantID:  cfg.MerchantID,
		MerchantKey: cfg.MerchantKey,
		Sandbox:     cfg.Sandbox,
	}
	qr, err := p.gateway.CreateQR(ctx, creds, paytm.CreateQRRequest{
		OrderID:      providerOrderID,
		Amount:       req.Amount.StringFixed(2),
		BusinessType: businessTypeDynamicQR,
		PosID:        posID(req.TableLabel),
		OrderDetails: req.Description,
		ExpiryDate:   utils.FormatGatewayTimestamp(expiresAt),
	})
	if err != nil {
		return nil, err
	}

	expiryUnix := expiresAt.Unix()
	txn := &db_models.PaymentTransaction{
		RestaurantID:    req.RestaurantID,
		OrderID:         req.OrderID,
		TableLabel:      req.TableLabel,
		ProviderOrderID: providerOrderID,
		ProviderQRID:    qr.QRCodeID,
		Amount:          req.Amount,
		Status:          db_models.PaymentStatusPending,
		QRPayload:       qr.QRData,
		QRImage:         qr.Image,
		ExpiresAt:       &expiryUnix,
	}

	issuance := &response_models.PaymentIssuance{
		ProviderOrderID: providerOrderID,
		QRPayload:       qr.QRData,
		QRImage:         qr.Image,
		ExpiresAt:       expiryUnix,
	}

	if err := p.transactions.Create(ctx, txn); err != nil {
		// The QR is already live at the gateway; losing the local record only
		// degrades reconciliation, so the caller still gets the QR.
		log.Printf("payment: failed to persist transaction for order %s: %v", providerOrderID, err)
		return issuance, nil
	}

	issuance.TransactionID = &txn.ID
	return issuance, nil
}

// createStaticPayment builds a UPI deep link against the restaurant's static
// payment address and renders the QR locally. No provider round trip, no
// transaction record: this path cannot be reconciled automatically.
func (p *paymentService) createStaticPayment(cfg *db_models.PaymentConfig, amount decimal.Decimal, tableLabel string) (*response_models.PaymentIssuance, error) {
	params := url.Values{}
	params.Set("pa", cfg.StaticPaymentAddress)
	if cfg.DisplayName != "" {
		params.Set("pn", cfg.DisplayName)
	}
	if amount.GreaterThan(decimal.Zero) {
		params.Set("am", amount.StringFixed(2))
		params.Set("cu", "INR")
	}
	if tableLabel != "" {
		params.Set("tn", "Table "+tableLabel)
	}
	uri := "upi://pay?" + params.Encode()

	png, err := qrcode.Encode(uri, qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("render static qr: %w", err)
	}

	return &response_models.PaymentIssuance{
		QRPayload: uri,
		QRImage:   base64.StdEncoding.EncodeToString(png),
		Static:    true,
	}, nil
}

// ProcessCallback applies a verified payment-result push. Duplicate and
// replayed deliveries acknowledge without re-running any side effect.
func (p *paymentService) ProcessCallback(ctx context.Context, cb *paytm.Callback, rawPayload []byte) (*response_models.CallbackAck, error) {
	txn, err := p.transactions.GetByProviderOrderID(ctx, cb.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if txn == nil {
		return nil, utils.ErrTransactionNotFound
	}

	if txn.Status.Terminal() {
		return &response_models.CallbackAck{
			ProviderOrderID:  cb.OrderID,
			Status:           string(txn.Status),
			AlreadyProcessed: true,
		}, nil
	}

	cfg, err := p.configs.GetActiveByRestaurant(ctx, txn.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if cfg == nil || cfg.MerchantKey == "" {
		// "We can't check" is not the same as "we checked and it's wrong".
		return nil, utils.ErrPaymentConfigMissing
	}

	if cb.Signature == "" || !checksum.Verify(cb.Fields, cb.Signature, cfg.MerchantKey) {
		return nil, utils.ErrSignatureInvalid
	}

	status := mapResultStatus(cb.ResultStatus)
	if status == db_models.PaymentStatusPending {
		if err := p.transactions.RecordCallback(ctx, cb.OrderID, cb.TxnID, datatypes.JSON(rawPayload)); err != nil {
			log.Printf("payment: failed to record pending callback for order %s: %v", cb.OrderID, err)
		}
		return &response_models.CallbackAck{
			ProviderOrderID: cb.OrderID,
			Status:          string(status),
		}, nil
	}

	applied, err := p.applyTerminalResult(ctx, txn, status, cb.TxnID, rawPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	return &response_models.CallbackAck{
		ProviderOrderID:  cb.OrderID,
		Status:           string(status),
		AlreadyProcessed: !applied,
	}, nil
}

// CheckStatus is the polling fallback for callers that never saw a webhook.
// A resolved record answers locally; otherwise the provider is queried and
// any terminal answer is applied through the same transition as the webhook.
func (p *paymentService) CheckStatus(ctx context.Context, providerOrderID string, restaurantID uuid.UUID) (*response_models.PaymentStatusResult, error) {
	txn, err := p.transactions.GetByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if txn == nil {
		return nil, utils.ErrTransactionNotFound
	}

	if txn.Status.Terminal() {
		return &response_models.PaymentStatusResult{
			ProviderOrderID: providerOrderID,
			Status:          string(txn.Status),
			Source:          response_models.StatusSourceLocal,
		}, nil
	}

	cfg, err := p.configs.GetActiveByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if cfg == nil || cfg.MerchantID == "" || cfg.MerchantKey == "" {
		return nil, utils.ErrPaymentConfigMissing
	}

	creds := paytm.Credentials{
		MerchantID:  cfg.MerchantID,
		MerchantKey: cfg.MerchantKey,
		Sandbox:     cfg.Sandbox,
	}
	statusResp, err := p.gateway.OrderStatus(ctx, creds, providerOrderID)
	if err != nil {
		return nil, err
	}

	status := mapResultStatus(statusResp.ResultStatus)
	if status.Terminal() {
		if _, err := p.applyTerminalResult(ctx, txn, status, statusResp.TxnID, jsonRaw(statusResp)); err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
	}

	return &response_models.PaymentStatusResult{
		ProviderOrderID: providerOrderID,
		Status:          string(status),
		Source:          response_models.StatusSourceProvider,
	}, nil
}

// applyTerminalResult is the single state transition shared by the webhook
// and the poller. The conditional write decides the race: only the winner's
// cascade runs, the loser reports applied == false.
func (p *paymentService) applyTerminalResult(ctx context.Context, txn *db_models.PaymentTransaction, status db_models.PaymentStatus, providerTxnID string, rawPayload []byte) (bool, error) {
	applied, err := p.transactions.MarkTerminal(ctx, txn.ProviderOrderID, status, providerTxnID, datatypes.JSON(rawPayload))
	if err != nil || !applied {
		return applied, err
	}

	if status == db_models.PaymentStatusSuccess && txn.OrderID != nil {
		if err := p.orders.MarkOrderPaid(ctx, *txn.OrderID, paymentMethodPaytmQR); err != nil {
			// The transaction already transitioned; the order cascade is
			// logged and left to back-office reconciliation.
			log.Printf("payment: order cascade failed for order %s: %v", txn.OrderID, err)
		}
	}
	return true, nil
}

func mapResultStatus(result string) db_models.PaymentStatus {
	switch result {
	case paytm.ResultTxnSuccess:
		return db_models.PaymentStatusSuccess
	case paytm.ResultPending:
		return db_models.PaymentStatusPending
	default:
		// Unrecognized gateway statuses read as failed, never as paid.
		return db_models.PaymentStatusFailed
	}
}

// newProviderOrderID combines unix millis with a short random suffix; the
// unique index on provider_order_id backstops any collision.
func newProviderOrderID() string {
	return fmt.Sprintf("TBLY%d%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

func posID(tableLabel string) string {
	if tableLabel == "" {
		return "POS-COUNTER"
	}
	return "POS-" + strings.ToUpper(strings.ReplaceAll(tableLabel, " ", "-"))
}

func jsonRaw(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func NewPaymentService(
	configs repositories.PaymentConfigRepositoryInterface,
	transactions repositories.PaymentTransactionRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
	gateway *paytm.Client,
) PaymentService {
	return &paymentService{
		configs:      configs,
		transactions: transactions,
		orders:       orders,
		gateway:      gateway,
	}
}
