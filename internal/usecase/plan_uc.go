package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"image-edit-saas/internal/domain"
	"image-edit-saas/internal/domain/model"
	"image-edit-saas/internal/domain/ports/repository"
)

type PlanUseCase struct {
	plans repository.SubscriptionPlanRepository
	log   zerolog.Logger
}

func NewPlanUseCase(plans repository.SubscriptionPlanRepository, log zerolog.Logger) *PlanUseCase {
	return &PlanUseCase{plans: plans, log: log.With().Str("component", "plan_uc").Logger()}
}

type PlanInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Points      int64
	Features    []string
	IsActive    *bool
}

func (uc *PlanUseCase) Create(ctx context.Context, in PlanInput) (*model.SubscriptionPlan, error) {
	plan, err := model.NewSubscriptionPlan(uuid.NewString(), in.Title, in.Description, in.Price, in.Points, in.Features)
	if err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
	if err := uc.plans.Save(ctx, nil, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	uc.log.Info().Str("plan_id", plan.ID).Str("title", plan.Title).Msg("plan created")
	return plan, nil
}

func (uc *PlanUseCase) Get(ctx context.Context, id string) (*model.SubscriptionPlan, error) {
	return uc.plans.FindByID(ctx, nil, id)
}

func (uc *PlanUseCase) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return uc.plans.ListAll(ctx, nil)
}

// ListActive is the public catalog view.
func (uc *PlanUseCase) ListActive(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	all, err := uc.plans.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, p := range all {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

// Update replaces the editable fields. Existing payments keep their snapshots.
func (uc *PlanUseCase) Update(ctx context.Context, id string, in PlanInput) (*model.SubscriptionPlan, error) {
	plan, err := uc.plans.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if in.Title == "" || in.Description == "" || !in.Price.IsPositive() || in.Points < 0 || len(in.Features) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	plan.Title = in.Title
	plan.Description = in.Description
	plan.Price = in.Price
	plan.Points = in.Points
	plan.Features = in.Features
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
	plan.UpdatedAt = time.Now()
	if err := uc.plans.Save(ctx, nil, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}
	uc.log.Info().Str("plan_id", plan.ID).Msg("plan updated")
	return plan, nil
}

func (uc *PlanUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.plans.Delete(ctx, nil, id); err != nil {
		return err
	}
	uc.log.Info().Str("plan_id", id).Msg("plan deleted")
	return nil
}
