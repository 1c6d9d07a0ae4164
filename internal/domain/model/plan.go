package model

import (
	"time"

	"image-edit-saas/internal/domain"

	"github.com/shopspring/decimal"
)

// SubscriptionPlan is a purchasable offer: a fiat price buys a fixed points
// grant. Payments snapshot the price and points at creation time, so a later
// plan edit never alters an already-created payment.
type SubscriptionPlan struct {
	ID          string
	Title       string
	Description string
	Price       decimal.Decimal // fiat, USD
	Points      int64
	Features    []string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *SubscriptionPlan) IsZero() bool { return p == nil || p.ID == "" }

// NewSubscriptionPlan validates and constructs a plan.
func NewSubscriptionPlan(id, title, description string, price decimal.Decimal, points int64, features []string) (*SubscriptionPlan, error) {
	if id == "" || title == "" || description == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !price.IsPositive() || points < 0 || len(features) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &SubscriptionPlan{
		ID:          id,
		Title:       title,
		Description: description,
		Price:       price,
		Points:      points,
		Features:    features,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
