//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/adapter"
)

type paymentFixture struct {
	uc       *PaymentUseCase
	users    *mockUserRepo
	plans    *mockPlanRepo
	payments *mockPaymentRepo
	gateway  *mockGateway

	user *model.User
	plan *model.SubscriptionPlan
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	users := newMockUserRepo()
	plans := newMockPlanRepo()
	payments := newMockPaymentRepo()
	gateway := &mockGateway{
		result: &adapter.InvoiceResult{
			PaymentID:     "np-100",
			PaymentStatus: "waiting",
			PayAddress:    "bc1qxy",
			PayAmount:     decimal.RequireFromString("0.0012"),
			PayCurrency:   "btc",
			InvoiceURL:    "https://nowpayments.io/payment/?iid=np-100",
		},
	}

	user, err := model.NewUser("u1", "buyer@example.com", "role-user")
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	user.IsActive = true
	users.Save(context.Background(), nil, user)

	plan, err := model.NewSubscriptionPlan("p1", "Pro", "monthly pro plan",
		decimal.RequireFromString("49.99"), 500, []string{"500 points"})
	if err != nil {
		t.Fatalf("NewSubscriptionPlan: %v", err)
	}
	plans.Save(context.Background(), nil, plan)

	uc := NewPaymentUseCase(payments, users, plans, gateway, &mockTxManager{},
		"https://api.test", "https://app.test", zerolog.Nop())

	return &paymentFixture{uc: uc, users: users, plans: plans, payments: payments,
		gateway: gateway, user: user, plan: plan}
}

// finished builds the canonical successful callback for a ledger entry. The
// minimal gateway body names the paid amount in pay_amount only.
func finished(p *model.Payment) IPNNotification {
	return IPNNotification{
		OrderID:       p.OrderID,
		PaymentID:     "np-100",
		PaymentStatus: "finished",
		PayAmount:     p.Amount,
		PayCurrency:   "usd",
	}
}

func TestGeneratePaymentLink(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending ledger entry before gateway call", func(t *testing.T) {
		f := newPaymentFixture(t)

		var pendingAtCall bool
		f.gateway.onCreate = func() {
			all := func() bool {
				for _, p := range f.payments.payments {
					if p.Status == model.PaymentStatusPending {
						return true
					}
				}
				return false
			}
			pendingAtCall = all()
		}

		p, err := f.uc.GeneratePaymentLink(ctx, f.user, "p1", "btc")
		if err != nil {
			t.Fatalf("GeneratePaymentLink: %v", err)
		}
		if !pendingAtCall {
			t.Error("pending payment not persisted before the outbound call")
		}
		if f.gateway.calls != 1 {
			t.Errorf("gateway calls = %d, want 1", f.gateway.calls)
		}
		if p.InvoiceURL != "https://nowpayments.io/payment/?iid=np-100" {
			t.Errorf("InvoiceURL = %q", p.InvoiceURL)
		}
		if p.PointsToAdd != 500 {
			t.Errorf("PointsToAdd = %d, want 500", p.PointsToAdd)
		}
		if !strings.HasPrefix(p.OrderID, "u1_p1_") {
			t.Errorf("OrderID = %q", p.OrderID)
		}
		if f.gateway.lastIn.IPNCallbackURL != "https://api.test/subscriptions/ipn-callback" {
			t.Errorf("IPNCallbackURL = %q", f.gateway.lastIn.IPNCallbackURL)
		}
	})

	t.Run("gateway failure marks the payment failed", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.gateway.result = nil
		f.gateway.err = &adapter.GatewayError{StatusCode: 403, Message: "INVALID_API_KEY"}

		_, err := f.uc.GeneratePaymentLink(ctx, f.user, "p1", "btc")
		var gerr *adapter.GatewayError
		if !errors.As(err, &gerr) {
			t.Fatalf("expected GatewayError, got %v", err)
		}

		if len(f.payments.payments) != 1 {
			t.Fatalf("payments = %d, want 1", len(f.payments.payments))
		}
		for _, p := range f.payments.payments {
			if p.Status != model.PaymentStatusFailed {
				t.Errorf("status = %s, want failed", p.Status)
			}
			if !strings.Contains(p.Error, "INVALID_API_KEY") {
				t.Errorf("error text = %q", p.Error)
			}
		}
	})

	t.Run("unknown plan", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.uc.GeneratePaymentLink(ctx, f.user, "nope", "btc")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		if f.gateway.calls != 0 {
			t.Error("gateway called for unknown plan")
		}
	})

	t.Run("inactive plan is not purchasable", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.plan.IsActive = false
		f.plans.Save(ctx, nil, f.plan)

		if _, err := f.uc.GeneratePaymentLink(ctx, f.user, "p1", "btc"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestReconcileIPN(t *testing.T) {
	ctx := context.Background()

	mustLink := func(t *testing.T, f *paymentFixture) *model.Payment {
		t.Helper()
		p, err := f.uc.GeneratePaymentLink(ctx, f.user, "p1", "btc")
		if err != nil {
			t.Fatalf("GeneratePaymentLink: %v", err)
		}
		return p
	}

	t.Run("finished credits the snapshot exactly once", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		got, err := f.uc.ReconcileIPN(ctx, finished(p))
		if err != nil {
			t.Fatalf("ReconcileIPN: %v", err)
		}
		if got.Status != model.PaymentStatusCompleted {
			t.Errorf("status = %s, want completed", got.Status)
		}
		if got.PointsAdded != 500 || got.NewBalance != 500 {
			t.Errorf("PointsAdded = %d NewBalance = %d", got.PointsAdded, got.NewBalance)
		}
		if got.ProcessedAt == nil || got.IPNReceivedAt == nil {
			t.Error("ProcessedAt / IPNReceivedAt not set")
		}
		u, _ := f.users.FindByID(ctx, nil, "u1")
		if u.Points != 500 {
			t.Errorf("user points = %d, want 500", u.Points)
		}
	})

	t.Run("replay does not credit twice", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		if _, err := f.uc.ReconcileIPN(ctx, finished(p)); err != nil {
			t.Fatalf("first ReconcileIPN: %v", err)
		}
		got, err := f.uc.ReconcileIPN(ctx, finished(p))
		if err != nil {
			t.Fatalf("replay ReconcileIPN: %v", err)
		}
		if got.Status != model.PaymentStatusCompleted {
			t.Errorf("status = %s", got.Status)
		}
		u, _ := f.users.FindByID(ctx, nil, "u1")
		if u.Points != 500 {
			t.Errorf("user points = %d after replay, want 500", u.Points)
		}
	})

	t.Run("amount within tolerance passes", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		n := finished(p)
		n.PayAmount = decimal.RequireFromString("49.98") // off by exactly 0.01
		got, err := f.uc.ReconcileIPN(ctx, n)
		if err != nil {
			t.Fatalf("ReconcileIPN: %v", err)
		}
		if got.Status != model.PaymentStatusCompleted {
			t.Errorf("status = %s, want completed", got.Status)
		}
	})

	t.Run("amount beyond tolerance is rejected", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		n := finished(p)
		n.PayAmount = decimal.RequireFromString("49.979")
		got, err := f.uc.ReconcileIPN(ctx, n)
		if !errors.Is(err, domain.ErrAmountMismatch) {
			t.Fatalf("err = %v, want ErrAmountMismatch", err)
		}
		if got.Status != model.PaymentStatusAmountMismatch {
			t.Errorf("status = %s", got.Status)
		}
		u, _ := f.users.FindByID(ctx, nil, "u1")
		if u.Points != 0 {
			t.Errorf("user points = %d, want 0", u.Points)
		}

		// The mismatch is terminal: a corrected replay must not credit.
		if _, err := f.uc.ReconcileIPN(ctx, finished(p)); err != nil {
			t.Fatalf("replay: %v", err)
		}
		u, _ = f.users.FindByID(ctx, nil, "u1")
		if u.Points != 0 {
			t.Errorf("user points = %d after replay of mismatch, want 0", u.Points)
		}
	})

	t.Run("paid amount is checked even when the fiat echo matches", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		n := finished(p)
		n.PriceAmount = p.Amount
		n.PayAmount = decimal.RequireFromString("10.02")
		got, err := f.uc.ReconcileIPN(ctx, n)
		if !errors.Is(err, domain.ErrAmountMismatch) {
			t.Fatalf("err = %v, want ErrAmountMismatch", err)
		}
		if got.Status != model.PaymentStatusAmountMismatch {
			t.Errorf("status = %s", got.Status)
		}
		u, _ := f.users.FindByID(ctx, nil, "u1")
		if u.Points != 0 {
			t.Errorf("user points = %d, want 0", u.Points)
		}
	})

	t.Run("fiat echo is checked when the paid amount is absent", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		n := finished(p)
		n.PayAmount = decimal.Decimal{}
		n.PriceAmount = p.Amount
		got, err := f.uc.ReconcileIPN(ctx, n)
		if err != nil {
			t.Fatalf("ReconcileIPN: %v", err)
		}
		if got.Status != model.PaymentStatusCompleted {
			t.Errorf("status = %s, want completed", got.Status)
		}
	})

	t.Run("callback without any amount is not credited", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		n := finished(p)
		n.PayAmount = decimal.Decimal{}
		got, err := f.uc.ReconcileIPN(ctx, n)
		if !errors.Is(err, domain.ErrAmountMismatch) {
			t.Fatalf("err = %v, want ErrAmountMismatch", err)
		}
		if got.Status != model.PaymentStatusAmountMismatch {
			t.Errorf("status = %s", got.Status)
		}
		u, _ := f.users.FindByID(ctx, nil, "u1")
		if u.Points != 0 {
			t.Errorf("user points = %d, want 0", u.Points)
		}
	})

	t.Run("plan edit does not change the credited amount", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		f.plan.Points = 9000
		f.plans.Save(ctx, nil, f.plan)

		got, err := f.uc.ReconcileIPN(ctx, finished(p))
		if err != nil {
			t.Fatalf("ReconcileIPN: %v", err)
		}
		if got.PointsAdded != 500 {
			t.Errorf("PointsAdded = %d, want snapshot 500", got.PointsAdded)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.uc.ReconcileIPN(ctx, IPNNotification{OrderID: "ghost", PaymentStatus: "finished"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("non-finished status only mirrors", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)

		n := finished(p)
		n.PaymentStatus = "confirming"
		got, err := f.uc.ReconcileIPN(ctx, n)
		if err != nil {
			t.Fatalf("ReconcileIPN: %v", err)
		}
		if got.Status != model.PaymentStatusPending {
			t.Errorf("status = %s, want pending", got.Status)
		}
		if got.PaymentStatus != "confirming" {
			t.Errorf("raw status = %q", got.PaymentStatus)
		}
		if got.IPNReceivedAt == nil {
			t.Error("IPNReceivedAt not mirrored")
		}
		u, _ := f.users.FindByID(ctx, nil, "u1")
		if u.Points != 0 {
			t.Errorf("user points = %d, want 0", u.Points)
		}

		// The finished callback afterwards still reconciles.
		if _, err := f.uc.ReconcileIPN(ctx, finished(p)); err != nil {
			t.Fatalf("finished after confirming: %v", err)
		}
		u, _ = f.users.FindByID(ctx, nil, "u1")
		if u.Points != 500 {
			t.Errorf("user points = %d, want 500", u.Points)
		}
	})

	t.Run("vanished user", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)
		delete(f.users.users, "u1")

		got, err := f.uc.ReconcileIPN(ctx, finished(p))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if got.Status != model.PaymentStatusUserNotFound {
			t.Errorf("status = %s", got.Status)
		}
	})

	t.Run("vanished plan", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)
		delete(f.plans.plans, "p1")

		got, err := f.uc.ReconcileIPN(ctx, finished(p))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if got.Status != model.PaymentStatusPlanNotFound {
			t.Errorf("status = %s", got.Status)
		}
	})

	t.Run("credit failure records ipn_error", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := mustLink(t, f)
		f.users.creditErr = errors.New("connection reset")

		_, err := f.uc.ReconcileIPN(ctx, finished(p))
		if !errors.Is(err, domain.ErrOperationFailed) {
			t.Fatalf("err = %v, want ErrOperationFailed", err)
		}

		stored, findErr := f.payments.FindByOrderID(ctx, nil, p.OrderID)
		if findErr != nil {
			t.Fatalf("FindByOrderID: %v", findErr)
		}
		if stored.Status != model.PaymentStatusIPNError {
			t.Errorf("status = %s, want ipn_error", stored.Status)
		}
		if !strings.Contains(stored.Error, "connection reset") {
			t.Errorf("error text = %q", stored.Error)
		}
	})
}
