package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/adapter"
	"image-edit-saas/internal/domain/ports/repository"
	"image-edit-saas/internal/infra/metrics"
)

// gatewayFinishedStatus is the only raw provider status that triggers
// reconciliation. Everything else is mirrored and left pending.
const gatewayFinishedStatus = "finished"

type PaymentUseCase struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
	plans    repository.SubscriptionPlanRepository
	gateway  adapter.PaymentGateway
	txm      repository.TransactionManager

	baseURL     string
	frontendURL string
	log         zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	plans repository.SubscriptionPlanRepository,
	gateway adapter.PaymentGateway,
	txm repository.TransactionManager,
	baseURL, frontendURL string,
	log zerolog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		payments:    payments,
		users:       users,
		plans:       plans,
		gateway:     gateway,
		txm:         txm,
		baseURL:     baseURL,
		frontendURL: frontendURL,
		log:         log.With().Str("component", "payment_uc").Logger(),
	}
}

// GeneratePaymentLink creates the pending ledger entry and then asks the
// gateway for an invoice. The pending row is written before the outbound call
// so an early IPN always finds its order. Exactly one gateway call per
// request; on provider failure the row is marked failed and the gateway error
// is passed through.
func (uc *PaymentUseCase) GeneratePaymentLink(ctx context.Context, user *model.User, planID, payCurrency string) (*model.Payment, error) {
	plan, err := uc.plans.FindByID(ctx, nil, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrNotFound
	}

	orderID := model.NewOrderID(user.ID, plan.ID, time.Now())
	p := model.NewPayment(uuid.NewString(), user, plan, orderID)
	if err := uc.payments.Save(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("save pending payment: %w", err)
	}

	res, err := uc.gateway.CreateInvoice(ctx, adapter.InvoiceRequest{
		PriceAmount:      p.Amount,
		PriceCurrency:    p.Currency,
		PayCurrency:      payCurrency,
		OrderID:          orderID,
		OrderDescription: plan.Title,
		IPNCallbackURL:   uc.baseURL + "/subscriptions/ipn-callback",
		SuccessURL:       uc.frontendURL + "/payment/success",
		CancelURL:        uc.frontendURL + "/payment/cancel",
	})
	if err != nil {
		p.Status = model.PaymentStatusFailed
		p.Error = err.Error()
		p.UpdatedAt = time.Now()
		if saveErr := uc.payments.Save(ctx, nil, p); saveErr != nil {
			uc.log.Error().Err(saveErr).Str("order_id", orderID).Msg("failed payment not persisted")
		}
		metrics.IncPayment(string(model.PaymentStatusFailed))
		return nil, err
	}

	p.PaymentID = res.PaymentID
	p.PaymentStatus = res.PaymentStatus
	p.PayAddress = res.PayAddress
	p.PayAmount = res.PayAmount
	p.PayCurrency = res.PayCurrency
	p.InvoiceURL = res.InvoiceURL
	p.UpdatedAt = time.Now()
	if err := uc.payments.Save(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("save invoiced payment: %w", err)
	}

	metrics.IncPayment(string(model.PaymentStatusPending))
	uc.log.Info().Str("order_id", orderID).Str("payment_id", p.PaymentID).Msg("payment link created")
	return p, nil
}

// IPNNotification is the already-authenticated callback payload. Signature
// verification happens at the HTTP edge against the raw body.
type IPNNotification struct {
	OrderID       string
	PaymentID     string
	PaymentStatus string          // raw provider status
	PriceAmount   decimal.Decimal // fiat price echo, present on some callbacks only
	PayAmount     decimal.Decimal // amount the provider reports as paid
	PayCurrency   string
}

// ReconcileIPN applies one gateway callback to the ledger.
//
// The raw status, paid amounts and receipt time are mirrored on every call.
// Only a "finished" status reconciles, and only a still-pending payment can
// reach a terminal status: the transition runs inside a transaction with a
// compare-and-set guard, so replays and concurrent deliveries credit at most
// once. Branch outcomes that persist state and still signal an error to the
// caller (amount mismatch, vanished user/plan) commit first and report after.
func (uc *PaymentUseCase) ReconcileIPN(ctx context.Context, n IPNNotification) (*model.Payment, error) {
	var (
		out        *model.Payment
		outcomeErr error
	)

	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := uc.payments.FindByOrderID(ctx, tx, n.OrderID)
		if err != nil {
			return err
		}

		now := time.Now()
		p.PaymentStatus = n.PaymentStatus
		p.IPNReceivedAt = &now
		p.UpdatedAt = now
		if p.PaymentID == "" {
			p.PaymentID = n.PaymentID
		}
		if !n.PayAmount.IsZero() {
			p.PayAmount = n.PayAmount
		}
		if n.PayCurrency != "" {
			p.PayCurrency = n.PayCurrency
		}
		out = p

		if n.PaymentStatus != gatewayFinishedStatus {
			metrics.IncIPN("mirrored")
			return uc.payments.Save(ctx, tx, p)
		}

		if p.Status.Terminal() {
			// Replay of an already-reconciled payment: mirror, never re-credit.
			metrics.IncIPN("replay")
			uc.log.Info().Str("order_id", p.OrderID).Str("status", string(p.Status)).Msg("ipn replay ignored")
			return uc.payments.Save(ctx, tx, p)
		}

		target, balance, err := uc.resolveFinished(ctx, tx, p, n)
		if err != nil {
			return err
		}

		ok, err := uc.payments.UpdateStatusIfPending(ctx, tx, p.ID, target)
		if err != nil {
			return fmt.Errorf("status transition: %w", err)
		}
		if !ok {
			// Another delivery won the race after our read.
			metrics.IncIPN("replay")
			return uc.payments.Save(ctx, tx, p)
		}

		p.Status = target
		p.ProcessedAt = &now
		if target == model.PaymentStatusCompleted {
			p.PointsAdded = p.PointsToAdd
			p.NewBalance = balance
			metrics.IncIPN("accepted")
			metrics.AddPointsCredited(p.PointsAdded)
			uc.log.Info().Str("order_id", p.OrderID).Int64("points", p.PointsAdded).
				Int64("balance", balance).Msg("payment reconciled")
		} else {
			outcomeErr = outcomeError(target)
			metrics.IncIPN(string(target))
			uc.log.Warn().Str("order_id", p.OrderID).Str("status", string(target)).
				Str("error", p.Error).Msg("payment not credited")
		}
		metrics.IncPayment(string(target))
		return uc.payments.Save(ctx, tx, p)
	})

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncIPN("unknown_order")
			return nil, err
		}
		metrics.IncIPN("error")
		uc.markIPNError(ctx, n, err)
		return nil, fmt.Errorf("%w: reconcile order %s: %v", domain.ErrOperationFailed, n.OrderID, err)
	}
	return out, outcomeErr
}

// resolveFinished decides the terminal status for a finished, still-pending
// payment and performs the credit when everything checks out. Runs inside the
// reconciliation transaction.
func (uc *PaymentUseCase) resolveFinished(ctx context.Context, tx repository.Tx, p *model.Payment, n IPNNotification) (model.PaymentStatus, int64, error) {
	// pay_amount carries what was actually paid; some callbacks echo only
	// the fiat price_amount. Whichever is present is checked against the
	// snapshot, and a callback naming no amount at all never credits.
	paid := n.PayAmount
	if paid.IsZero() {
		paid = n.PriceAmount
	}
	if paid.IsZero() {
		p.Error = "callback reports no paid amount"
		return model.PaymentStatusAmountMismatch, 0, nil
	}
	if diff := paid.Sub(p.Amount).Abs(); diff.GreaterThan(model.AmountTolerance) {
		p.Error = fmt.Sprintf("paid %s, expected %s", paid, p.Amount)
		return model.PaymentStatusAmountMismatch, 0, nil
	}

	if _, err := uc.users.FindByID(ctx, tx, p.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.Error = "user no longer exists"
			return model.PaymentStatusUserNotFound, 0, nil
		}
		return "", 0, fmt.Errorf("resolve user: %w", err)
	}
	if _, err := uc.plans.FindByID(ctx, tx, p.PlanID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.Error = "plan no longer exists"
			return model.PaymentStatusPlanNotFound, 0, nil
		}
		return "", 0, fmt.Errorf("resolve plan: %w", err)
	}

	// Credit the snapshot taken at purchase time, not the plan's current grant.
	balance, err := uc.users.CreditPoints(ctx, tx, p.UserID, p.PointsToAdd)
	if err != nil {
		return "", 0, fmt.Errorf("credit points: %w", err)
	}
	return model.PaymentStatusCompleted, balance, nil
}

// markIPNError records an unexpected reconciliation failure on the ledger
// entry. Best effort, outside the rolled-back transaction; the pending guard
// keeps it from clobbering a terminal status.
func (uc *PaymentUseCase) markIPNError(ctx context.Context, n IPNNotification, cause error) {
	p, err := uc.payments.FindByOrderID(ctx, nil, n.OrderID)
	if err != nil {
		uc.log.Error().Err(err).Str("order_id", n.OrderID).Msg("ipn error not recorded")
		return
	}
	ok, err := uc.payments.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusIPNError)
	if err != nil || !ok {
		return
	}
	now := time.Now()
	p.Status = model.PaymentStatusIPNError
	p.PaymentStatus = n.PaymentStatus
	p.Error = cause.Error()
	p.IPNReceivedAt = &now
	p.UpdatedAt = now
	if err := uc.payments.Save(ctx, nil, p); err != nil {
		uc.log.Error().Err(err).Str("order_id", n.OrderID).Msg("ipn error not recorded")
	}
	metrics.IncPayment(string(model.PaymentStatusIPNError))
}

// GetPayment returns a payment owned by the user.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	p, err := uc.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func outcomeError(s model.PaymentStatus) error {
	switch s {
	case model.PaymentStatusAmountMismatch:
		return domain.ErrAmountMismatch
	case model.PaymentStatusUserNotFound, model.PaymentStatusPlanNotFound:
		return domain.ErrNotFound
	default:
		return nil
	}
}
