package utils

import (
	"errors"
	"github.com/gin-gonic/gin"
	"log"
	"net/http"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	traceID, _ := c.Get("trace_id")
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID.(string),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	traceID, _ := c.Get("trace_id")
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID.(string),
	})
}

func HandleServiceError(c *gin.Context, err error) {
	var gatewayErr *GatewayError

	switch {
	case errors.Is(err, ErrPaymentConfigMissing):
		RespondError(c, http.StatusUnprocessableEntity, "No active payment configuration for this restaurant")
	case errors.Is(err, ErrTransactionNotFound):
		RespondError(c, http.StatusNotFound, "Payment transaction not found")
	case errors.Is(err, ErrSignatureInvalid):
		RespondError(c, http.StatusForbidden, "Callback signature invalid")
	case errors.Is(err, ErrGatewayUnreachable):
		log.Printf("Gateway unreachable: %v", err)
		RespondError(c, http.StatusGatewayTimeout, "Payment gateway unreachable")
	case errors.As(err, &gatewayErr):
		RespondError(c, http.StatusBadGateway, gatewayErr.Error())
	case errors.Is(err, ErrDatabaseError):
		log.Printf("Database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("Unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
