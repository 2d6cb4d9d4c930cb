// Package paytm talks to the Paytm dynamic-QR and order-status APIs and
// normalizes their asynchronous payment callbacks.
package paytm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tably/pkg/checksum"
	"tably/pkg/utils"
)

const (
	productionBaseURL = "https://securegw.paytm.in"
	sandboxBaseURL    = "https://securegw-stage.paytm.in"

	createQRPath    = "/paymentservices/qr/create"
	orderStatusPath = "/v3/order/status"

	requestVersion = "v1"
	defaultTimeout = 15 * time.Second
)

// Credentials are resolved per restaurant from its PaymentConfig row.
type Credentials struct {
	MerchantID  string
	MerchantKey string
	Sandbox     bool
}

type Client struct {
	httpClient *http.Client
	baseURL    string // overrides sandbox/production selection when set
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: defaultTimeout}}
}

// NewClientWithBaseURL points every call at a fixed base URL. Used by tests
// to stand in for the gateway.
func NewClientWithBaseURL(httpClient *http.Client, baseURL string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

func (c *Client) resolveBaseURL(creds Credentials) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	if creds.Sandbox {
		return sandboxBaseURL
	}
	return productionBaseURL
}

type requestHead struct {
	Version   string `json:"version"`
	Signature string `json:"signature"`
}

type resultInfo struct {
	ResultStatus string `json:"resultStatus"`
	ResultCode   string `json:"resultCode"`
	ResultMsg    string `json:"resultMsg"`
}

type CreateQRRequest struct {
	OrderID      string
	Amount       string // fixed two decimal places
	BusinessType string
	PosID        string
	OrderDetails string
	ExpiryDate   string // "2006-01-02 15:04:05" in IST
}

func (r CreateQRRequest) fields(merchantID string) map[string]string {
	return map[string]string{
		"mid":          merchantID,
		"orderId":      r.OrderID,
		"amount":       r.Amount,
		"businessType": r.BusinessType,
		"posId":        r.PosID,
		"orderDetails": r.OrderDetails,
		"expiryDate":   r.ExpiryDate,
	}
}

type CreateQRResponse struct {
	QRCodeID string
	QRData   string
	Image    string // base64 PNG
}

type createQRResponseBody struct {
	ResultInfo resultInfo `json:"resultInfo"`
	QRCodeID   string     `json:"qrCodeId"`
	QRData     string     `json:"qrData"`
	Image      string     `json:"image"`
}

// CreateQR requests a dynamic payment QR for the signed field set. A gateway
// business rejection comes back as *utils.GatewayError.
func (c *Client) CreateQR(ctx context.Context, creds Credentials, req CreateQRRequest) (*CreateQRResponse, error) {
	var respBody createQRResponseBody
	if err := c.post(ctx, creds, createQRPath, req.fields(creds.MerchantID), &respBody); err != nil {
		return nil, err
	}

	if respBody.ResultInfo.ResultStatus != "SUCCESS" {
		return nil, &utils.GatewayError{
			Code:    respBody.ResultInfo.ResultCode,
			Message: respBody.ResultInfo.ResultMsg,
		}
	}

	return &CreateQRResponse{
		QRCodeID: respBody.QRCodeID,
		QRData:   respBody.QRData,
		Image:    respBody.Image,
	}, nil
}

type OrderStatusResponse struct {
	OrderID      string
	TxnID        string
	TxnAmount    string
	ResultStatus string
	ResultCode   string
	ResultMsg    string
}

type orderStatusResponseBody struct {
	ResultInfo resultInfo `json:"resultInfo"`
	OrderID    string     `json:"orderId"`
	TxnID      string     `json:"txnId"`
	TxnAmount  string     `json:"txnAmount"`
}

// OrderStatus queries the transaction outcome for one of our order ids.
// A failed transaction is a valid answer here, not an error; only transport
// problems fail the call.
func (c *Client) OrderStatus(ctx context.Context, creds Credentials, orderID string) (*OrderStatusResponse, error) {
	fields := map[string]string{
		"mid":     creds.MerchantID,
		"orderId": orderID,
	}

	var respBody orderStatusResponseBody
	if err := c.post(ctx, creds, orderStatusPath, fields, &respBody); err != nil {
		return nil, err
	}

	return &OrderStatusResponse{
		OrderID:      respBody.OrderID,
		TxnID:        respBody.TxnID,
		TxnAmount:    respBody.TxnAmount,
		ResultStatus: respBody.ResultInfo.ResultStatus,
		ResultCode:   respBody.ResultInfo.ResultCode,
		ResultMsg:    respBody.ResultInfo.ResultMsg,
	}, nil
}

func (c *Client) post(ctx context.Context, creds Credentials, path string, fields map[string]string, out interface{}) error {
	signature, err := checksum.Sign(fields, creds.MerchantKey)
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"body": fields,
		"head": requestHead{Version: requestVersion, Signature: signature},
	})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := c.resolveBaseURL(creds) + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gateway returned %d", utils.ErrGatewayUnreachable, resp.StatusCode)
	}

	var envelope struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Body, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
