package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidSignature is returned when a gateway callback fails HMAC
	// verification. Callers must not mutate any order after seeing it.
	ErrInvalidSignature = errors.New("invalid callback signature")
	// ErrUnknownBank is returned for a bank id outside the configured list.
	ErrUnknownBank = errors.New("unknown bank")
)

// GatewayRejectedError reports that the wallet gateway answered the
// session-creation call with a non-success result. The order is untouched and
// the attempt may be retried.
type GatewayRejectedError struct {
	StatusCode int
	ResultCode int
	Message    string
}

func (e *GatewayRejectedError) Error() string {
	return fmt.Sprintf("wallet gateway rejected request: status=%d resultCode=%d message=%q",
		e.StatusCode, e.ResultCode, e.Message)
}
