package utils

import (
	"errors"
	"fmt"
)

var (
	// ErrPaymentConfigMissing: no active gateway configuration for the
	// restaurant, or one without usable credentials.
	ErrPaymentConfigMissing = errors.New("no active payment configuration")

	// ErrTransactionNotFound: unknown provider order id.
	ErrTransactionNotFound = errors.New("payment transaction not found")

	// ErrSignatureInvalid: a callback whose checksum did not verify. Reported,
	// never propagated as a crash, since the input is untrusted.
	ErrSignatureInvalid = errors.New("callback signature invalid")

	// ErrGatewayUnreachable: timeout or connection failure talking to the
	// provider. The caller decides whether to retry.
	ErrGatewayUnreachable = errors.New("payment gateway unreachable")

	ErrDatabaseError = errors.New("database error")
)

// GatewayError is a business-level rejection from the provider, surfaced with
// its own code and message so operators can look it up in the gateway docs.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected request: %s (%s)", e.Message, e.Code)
}
