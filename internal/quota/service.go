package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/internal/catalog"
	"github.com/pravnaai/pravnaai-backend/pkg/config"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	"github.com/pravnaai/pravnaai-backend/pkg/enums"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

type subscriptionFinder interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

// Status is the quota decision for one user at one instant.
type Status struct {
	Used            int    `json:"used"`
	Remaining       int    `json:"remaining"`
	Limit           int    `json:"limit"`
	CanQuery        bool   `json:"can_query"`
	PlanName        string `json:"plan_name"`
	PlanDisplayName string `json:"plan_display_name"`
}

// Service meters per-user daily query quota.
type Service interface {
	Evaluate(ctx context.Context, userID uuid.UUID, now time.Time) (*Status, error)
	Increment(ctx context.Context, userID uuid.UUID, now time.Time) error
}

// ServiceParams groups dependencies for the quota service.
type ServiceParams struct {
	Repo             Repository
	SubscriptionRepo subscriptionFinder
	Catalog          catalog.Service
	Config           config.QuotaConfig
}

type service struct {
	repo    Repository
	subs    subscriptionFinder
	catalog catalog.Service
	resetTZ *time.Location
}

// NewService builds a quota service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("usage repo required")
	}
	if params.SubscriptionRepo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	tzName := params.Config.ResetTimezone
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid quota reset timezone %q: %w", tzName, err)
	}
	return &service{
		repo:    params.Repo,
		subs:    params.SubscriptionRepo,
		catalog: params.Catalog,
		resetTZ: loc,
	}, nil
}

// Evaluate resolves the caller's plan and reports today's usage against its
// limit. It never writes; callers may invoke it as often as they like.
func (s *service) Evaluate(ctx context.Context, userID uuid.UUID, now time.Time) (*Status, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	plan, err := s.resolvePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := plan.QueriesPerDay
	if limit < 1 {
		limit = 1
	}

	usage, err := s.repo.FindUsage(ctx, userID, s.dayKey(now))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup daily usage")
	}
	used := 0
	if usage != nil {
		used = usage.QueryCount
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &Status{
		Used:            used,
		Remaining:       remaining,
		Limit:           limit,
		CanQuery:        used < limit,
		PlanName:        plan.Name,
		PlanDisplayName: plan.DisplayName,
	}, nil
}

// Increment records one consumed query for the user's current day.
func (s *service) Increment(ctx context.Context, userID uuid.UUID, now time.Time) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.IncrementUsage(ctx, userID, s.dayKey(now)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment daily usage")
	}
	return nil
}

// resolvePlan picks the active subscription's plan; any other subscription
// state falls back to the free tier.
func (s *service) resolvePlan(ctx context.Context, userID uuid.UUID) (*models.Plan, error) {
	sub, err := s.subs.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	if sub != nil && sub.Status == enums.SubscriptionStatusActive && sub.Plan != nil {
		return sub.Plan, nil
	}
	return s.catalog.FreePlan(ctx)
}

func (s *service) dayKey(now time.Time) string {
	return now.In(s.resetTZ).Format("2006-01-02")
}
