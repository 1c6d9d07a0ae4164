package adapter

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// InvoiceRequest is the provider-agnostic payment-creation request. Amounts
// are fiat; PayCurrency is the crypto currency the user chose to pay with.
type InvoiceRequest struct {
	PriceAmount      decimal.Decimal
	PriceCurrency    string
	PayCurrency      string
	OrderID          string
	OrderDescription string
	IPNCallbackURL   string
	SuccessURL       string
	CancelURL        string
}

// InvoiceResult carries what the provider assigned to the new invoice.
type InvoiceResult struct {
	PaymentID     string
	PaymentStatus string
	PayAddress    string
	PayAmount     decimal.Decimal
	PayCurrency   string
	InvoiceURL    string
}

// GatewayError preserves the provider's HTTP status and message so the caller
// can surface them verbatim.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: status %d: %s", e.StatusCode, e.Message)
}

// PaymentGateway is the hex port for the external payment processor.
type PaymentGateway interface {
	Name() string
	// CreateInvoice performs exactly one outbound HTTP call to the provider.
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error)
}
