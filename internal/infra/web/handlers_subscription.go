package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/infra/logging"
	"image-edit-saas/internal/infra/metrics"
	"image-edit-saas/internal/infra/payment"
	"image-edit-saas/internal/usecase"
)

type planView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Points      int64    `json:"points"`
	Features    []string `json:"features"`
	IsActive    bool     `json:"is_active"`
}

func toPlanView(p *model.SubscriptionPlan) planView {
	return planView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.String(),
		Points:      p.Points,
		Features:    p.Features,
		IsActive:    p.IsActive,
	}
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, toPlanView(p))
	}
	s.writeJSON(w, http.StatusOK, views)
}

type planRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       string   `json:"price" validate:"required"`
	Points      int64    `json:"points" validate:"gte=0"`
	Features    []string `json:"features" validate:"required,min=1"`
	IsActive    *bool    `json:"is_active"`
}

func (r planRequest) toInput() (usecase.PlanInput, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return usecase.PlanInput{}, domain.ErrInvalidArgument
	}
	return usecase.PlanInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       price,
		Points:      r.Points,
		Features:    r.Features,
		IsActive:    r.IsActive,
	}, nil
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.planUC.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toPlanView(plan))
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.planUC.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPlanView(plan))
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "plan deleted"})
}

type paymentView struct {
	ID            string     `json:"id"`
	PlanID        string     `json:"plan_id"`
	OrderID       string     `json:"order_id"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	PayAddress    string     `json:"pay_address,omitempty"`
	PayAmount     string     `json:"pay_amount,omitempty"`
	PayCurrency   string     `json:"pay_currency,omitempty"`
	InvoiceURL    string     `json:"invoice_url,omitempty"`
	PointsAdded   int64      `json:"points_added,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toPaymentView(p *model.Payment) paymentView {
	v := paymentView{
		ID:            p.ID,
		PlanID:        p.PlanID,
		OrderID:       p.OrderID,
		Amount:        p.Amount.String(),
		Currency:      p.Currency,
		Status:        string(p.Status),
		PaymentStatus: p.PaymentStatus,
		PayAddress:    p.PayAddress,
		PayCurrency:   p.PayCurrency,
		InvoiceURL:    p.InvoiceURL,
		PointsAdded:   p.PointsAdded,
		ProcessedAt:   p.ProcessedAt,
		CreatedAt:     p.CreatedAt,
	}
	if !p.PayAmount.IsZero() {
		v.PayAmount = p.PayAmount.String()
	}
	return v
}

type paymentLinkRequest struct {
	PlanID      string `json:"plan_id" validate:"required"`
	PayCurrency string `json:"pay_currency"`
}

func (s *Server) handlePaymentLink(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	var req paymentLinkRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.paymentUC.GeneratePaymentLink(r.Context(), user, req.PlanID, req.PayCurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPaymentView(p))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrUnauthorized)
		return
	}
	p, err := s.paymentUC.GetPayment(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPaymentView(p))
}

// ipnPayload is the gateway callback body. Numbers stay json.Number so the
// amounts survive as exact decimals.
type ipnPayload struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	OrderID       string      `json:"order_id"`
	PriceAmount   json.Number `json:"price_amount"`
	PayAmount     json.Number `json:"pay_amount"`
	PayCurrency   string      `json:"pay_currency"`
}

func (s *Server) handleIPNCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	if !payment.VerifyIPNSignature(s.ipnSecret, body, r.Header.Get("x-nowpayments-sig")) {
		metrics.IncIPN("bad_signature")
		logging.With(r.Context(), s.log).Warn().Msg("ipn signature rejected")
		s.writeError(w, r, domain.ErrBadSignature)
		return
	}

	var payload ipnPayload
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil || payload.OrderID == "" {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	n := usecase.IPNNotification{
		OrderID:       payload.OrderID,
		PaymentID:     payload.PaymentID.String(),
		PaymentStatus: payload.PaymentStatus,
		PayCurrency:   payload.PayCurrency,
	}
	if v := payload.PriceAmount.String(); v != "" {
		if n.PriceAmount, err = decimal.NewFromString(v); err != nil {
			s.writeError(w, r, domain.ErrInvalidArgument)
			return
		}
	}
	if v := payload.PayAmount.String(); v != "" {
		if n.PayAmount, err = decimal.NewFromString(v); err != nil {
			s.writeError(w, r, domain.ErrInvalidArgument)
			return
		}
	}

	ctx := logging.WithOrderID(r.Context(), payload.OrderID)
	p, err := s.paymentUC.ReconcileIPN(ctx, n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(p.Status)})
}
