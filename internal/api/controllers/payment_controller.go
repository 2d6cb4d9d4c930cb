package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tably/internal/gateway/paytm"
	"tably/internal/models/request_models"
	"tably/internal/services"
	"tably/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// CreateQRPayment godoc
// @Summary Issue a payment QR for a table or order
// @Description Requests a dynamic gateway QR, falling back to the restaurant's static payment address
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.CreateQRPaymentRequest true "Create QR Payment Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/qr [post]
func (p *PaymentController) CreateQRPayment(c *gin.Context) {

	var request request_models.CreateQRPaymentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	issuance, err := p.paymentService.CreateDynamicPayment(c.Request.Context(), request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, issuance, "Payment QR issued")
}

// GetPaymentStatus godoc
// @Summary Resolve the status of a payment attempt
// @Description Answers from the local record when resolved, otherwise queries the gateway
// @Tags Payments
// @Produce json
// @Param providerOrderId path string true "Provider order id"
// @Param restaurant_id query string true "Restaurant id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/status/{providerOrderId} [get]
func (p *PaymentController) GetPaymentStatus(c *gin.Context) {

	providerOrderID := c.Param("providerOrderId")
	if providerOrderID == "" {
		utils.RespondError(c, http.StatusBadRequest, "providerOrderId is required")
		return
	}

	restaurantID, err := uuid.Parse(c.Query("restaurant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "restaurant_id is required")
		return
	}

	result, err := p.paymentService.CheckStatus(c.Request.Context(), providerOrderID, restaurantID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Payment status resolved")
}

// HandleGatewayCallback receives the gateway's asynchronous payment-result
// push. The route is unauthenticated; the checksum is the authentication.
// Responses follow the gateway contract: 400 unparseable or no order id,
// 404 unknown order, 403 bad signature, 500 when verification is impossible,
// 200 otherwise (including duplicate deliveries).
func (p *PaymentController) HandleGatewayCallback(c *gin.Context) {

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	cb, err := paytm.ParseCallback(rawBody)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid callback payload")
		return
	}
	if cb.OrderID == "" {
		utils.RespondError(c, http.StatusBadRequest, "Callback missing order id")
		return
	}

	ack, err := p.paymentService.ProcessCallback(c.Request.Context(), cb, rawBody)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrTransactionNotFound):
			utils.RespondError(c, http.StatusNotFound, "Unknown order id")
		case errors.Is(err, utils.ErrSignatureInvalid):
			utils.RespondError(c, http.StatusForbidden, "Callback signature invalid")
		case errors.Is(err, utils.ErrPaymentConfigMissing):
			log.Printf("webhook: cannot verify callback for order %s: %v", cb.OrderID, err)
			utils.RespondError(c, http.StatusInternalServerError, "Unable to verify callback")
		default:
			log.Printf("webhook: failed to process callback for order %s: %v", cb.OrderID, err)
			utils.RespondError(c, http.StatusInternalServerError, "Failed to process callback")
		}
		return
	}

	if ack.AlreadyProcessed {
		utils.RespondSuccess(c, ack, "Already processed")
		return
	}
	utils.RespondSuccess(c, ack, "Callback processed")
}
