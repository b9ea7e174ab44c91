package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

// FreePlanName is the seeded fallback tier every user resolves to without an
// active subscription.
const FreePlanName = "free"

// Service exposes the read-only plan catalog.
type Service interface {
	ListActivePlans(ctx context.Context) ([]models.Plan, error)
	FindPlanByName(ctx context.Context, name string) (*models.Plan, error)
	FindPlanByStripePriceID(ctx context.Context, priceID string) (*models.Plan, error)
	FreePlan(ctx context.Context) (*models.Plan, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo Repository
}

type service struct {
	repo Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repo required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) ListActivePlans(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}
	return plans, nil
}

func (s *service) FindPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	plan, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup plan by name")
	}
	return plan, nil
}

func (s *service) FindPlanByStripePriceID(ctx context.Context, priceID string) (*models.Plan, error) {
	if strings.TrimSpace(priceID) == "" {
		return nil, nil
	}
	plan, err := s.repo.FindByStripePriceID(ctx, priceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup plan by price")
	}
	return plan, nil
}

// FreePlan returns the seeded free tier. A missing row means the seed
// migration never ran, which is a deployment error rather than user input.
func (s *service) FreePlan(ctx context.Context) (*models.Plan, error) {
	plan, err := s.repo.FindByName(ctx, FreePlanName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup free plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "free plan missing from catalog")
	}
	return plan, nil
}

// DisplayPrice formats price_cents as a decimal EUR amount, e.g. "9.99".
func DisplayPrice(priceCents int64) string {
	return decimal.NewFromInt(priceCents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
