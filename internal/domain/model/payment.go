package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending        PaymentStatus = "pending"         // invoice created on provider side, awaiting IPN
	PaymentStatusCompleted      PaymentStatus = "completed"       // reconciled, points credited
	PaymentStatusFailed         PaymentStatus = "failed"          // provider rejected the invoice request
	PaymentStatusAmountMismatch PaymentStatus = "amount_mismatch" // paid amount outside tolerance
	PaymentStatusUserNotFound   PaymentStatus = "user_not_found"  // referenced user vanished before credit
	PaymentStatusPlanNotFound   PaymentStatus = "plan_not_found"  // referenced plan vanished before credit
	PaymentStatusIPNError       PaymentStatus = "ipn_error"       // unexpected failure during reconciliation
)

// Terminal reports whether no further transition is allowed from s.
func (s PaymentStatus) Terminal() bool { return s != PaymentStatusPending }

// AmountTolerance is the maximum accepted absolute difference between the
// expected invoice amount and the amount the gateway reports as paid.
var AmountTolerance = decimal.RequireFromString("0.01")

// Payment is the reconciliation ledger entry. It is created in pending status
// immediately before the outbound gateway call and finished exactly once by
// the IPN handler. Rows are never deleted.
type Payment struct {
	ID     string
	UserID string
	PlanID string

	Amount      decimal.Decimal // fiat price at purchase time
	Currency    string          // fiat currency, e.g. "usd"
	PointsToAdd int64           // snapshot of the plan's grant; never re-read from the plan

	PaymentID string // provider-assigned id
	OrderID   string // our correlation key for the IPN callback

	Status        PaymentStatus
	PaymentStatus string // raw provider status string, mirrored verbatim

	PayAddress  string
	PayAmount   decimal.Decimal
	PayCurrency string
	InvoiceURL  string

	PointsAdded int64
	NewBalance  int64
	Error       string

	IPNReceivedAt *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Payment) IsZero() bool { return p == nil || p.ID == "" }

// NewOrderID builds the globally-unique correlation key embedded in the
// outbound invoice. The timestamp keeps retries for the same user/plan pair
// distinct.
func NewOrderID(userID, planID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", userID, planID, now.UnixMilli())
}

// NewPayment snapshots the plan's price and points grant into a pending
// ledger entry.
func NewPayment(id string, user *User, plan *SubscriptionPlan, orderID string) *Payment {
	now := time.Now()
	return &Payment{
		ID:          id,
		UserID:      user.ID,
		PlanID:      plan.ID,
		Amount:      plan.Price,
		Currency:    "usd",
		PointsToAdd: plan.Points,
		OrderID:     orderID,
		Status:      PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
