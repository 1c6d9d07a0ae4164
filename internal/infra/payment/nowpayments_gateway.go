package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"image-edit-saas/internal/config"
	"image-edit-saas/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NOWPaymentsGateway)(nil)

// NOWPaymentsGateway creates crypto invoices against the NOWPayments REST API.
// Every outbound payload is signed with the IPN secret the same way inbound
// callbacks are verified.
type NOWPaymentsGateway struct {
	baseURL   string
	apiKey    string
	ipnSecret string
	client    *http.Client
	log       zerolog.Logger
}

func NewNOWPaymentsGateway(cfg *config.NOWPaymentsConfig, log zerolog.Logger) *NOWPaymentsGateway {
	return &NOWPaymentsGateway{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		ipnSecret: cfg.IPNSecret,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       log.With().Str("component", "nowpayments").Logger(),
	}
}

func (g *NOWPaymentsGateway) Name() string { return "nowpayments" }

type invoiceResponse struct {
	ID            json.Number `json:"id"`
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	PayAddress    string      `json:"pay_address"`
	PayAmount     json.Number `json:"pay_amount"`
	PayCurrency   string      `json:"pay_currency"`
	InvoiceURL    string      `json:"invoice_url"`
	Message       string      `json:"message"`
}

func (g *NOWPaymentsGateway) CreateInvoice(ctx context.Context, req adapter.InvoiceRequest) (*adapter.InvoiceResult, error) {
	payload := map[string]interface{}{
		"price_amount":        json.Number(req.PriceAmount.String()),
		"price_currency":      req.PriceCurrency,
		"order_id":            req.OrderID,
		"order_description":   req.OrderDescription,
		"ipn_callback_url":    req.IPNCallbackURL,
		"success_url":         req.SuccessURL,
		"cancel_url":          req.CancelURL,
		"is_fixed_rate":       true,
		"is_fee_paid_by_user": false,
	}
	if req.PayCurrency != "" {
		payload["pay_currency"] = req.PayCurrency
	}

	// Maps marshal with sorted keys, so these are the canonical bytes both
	// sent on the wire and covered by the signature header.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode invoice payload: %w", err)
	}
	body := bytes.TrimRight(buf.Bytes(), "\n")

	sig, err := SignIPN(g.ipnSecret, body)
	if err != nil {
		return nil, fmt.Errorf("sign invoice payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/invoice", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build invoice request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("x-nowpayments-sig", sig)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call nowpayments: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read nowpayments response: %w", err)
	}

	var parsed invoiceResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("decode nowpayments response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		g.log.Warn().Int("status", resp.StatusCode).Str("order_id", req.OrderID).Str("message", msg).
			Msg("invoice creation rejected")
		return nil, &adapter.GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	result := &adapter.InvoiceResult{
		PaymentID:     parsed.ID.String(),
		PaymentStatus: parsed.PaymentStatus,
		PayAddress:    parsed.PayAddress,
		PayCurrency:   parsed.PayCurrency,
		InvoiceURL:    parsed.InvoiceURL,
	}
	if result.PaymentID == "" {
		result.PaymentID = parsed.PaymentID.String()
	}
	if parsed.PayAmount != "" {
		amt, err := decimal.NewFromString(parsed.PayAmount.String())
		if err != nil {
			return nil, fmt.Errorf("parse pay_amount %q: %w", parsed.PayAmount, err)
		}
		result.PayAmount = amt
	}
	if result.InvoiceURL == "" && result.PaymentID != "" {
		result.InvoiceURL = fmt.Sprintf("https://nowpayments.io/payment/?iid=%s", result.PaymentID)
	}

	g.log.Info().Str("order_id", req.OrderID).Str("payment_id", result.PaymentID).
		Str("status", result.PaymentStatus).Msg("invoice created")
	return result, nil
}
