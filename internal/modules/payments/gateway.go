package payments

import "context"

// InvoiceRequest is the effective payload handed to the gateway. Extra holds
// caller-supplied additional data; reserved keys are stripped before it gets
// here and must never override the base fields.
type InvoiceRequest struct {
	Amount      string // 2 decimal places
	Currency    string
	OrderID     string
	URLCallback string
	URLSuccess  string
	Extra       map[string]any
}

type InvoiceResult struct {
	UUID    string // gateway-side transaction id
	OrderID string
	URL     string // hosted payment page
	Raw     map[string]any
}

type Gateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error)
}
