package payments

import "errors"

var (
	ErrDuplicateOrderID   = errors.New("order id already exists")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
