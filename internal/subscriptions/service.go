package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/pravnaai/pravnaai-backend/internal/catalog"
	"github.com/pravnaai/pravnaai-backend/internal/quota"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	"github.com/pravnaai/pravnaai-backend/pkg/enums"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

// PlanView is the public shape of a catalog plan.
type PlanView struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"display_name"`
	Price         string   `json:"price"`
	QueriesPerDay int      `json:"queries_per_day"`
	Features      []string `json:"features"`
}

// SubscriptionView is the public shape of a stored subscription.
type SubscriptionView struct {
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}

// StatusView combines subscription, plan and quota state for the account page.
type StatusView struct {
	Subscription *SubscriptionView `json:"subscription"`
	Plan         PlanView          `json:"plan"`
	Usage        quota.Status      `json:"usage"`
}

// Service exposes subscription state and Stripe session creation.
type Service interface {
	Status(ctx context.Context, userID uuid.UUID, now time.Time) (*StatusView, error)
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, planName string) (string, error)
	CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo    Repository
	Catalog catalog.Service
	Quota   quota.Service
	Stripe  StripeBillingClient
	SiteURL string
}

type service struct {
	repo    Repository
	catalog catalog.Service
	quota   quota.Service
	stripe  StripeBillingClient
	siteURL string
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Quota == nil {
		return nil, fmt.Errorf("quota service required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	siteURL := strings.TrimRight(strings.TrimSpace(params.SiteURL), "/")
	if siteURL == "" {
		return nil, fmt.Errorf("site url required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		quota:   params.Quota,
		stripe:  params.Stripe,
		siteURL: siteURL,
	}, nil
}

// NewPlanView maps a plan row to its public shape.
func NewPlanView(plan models.Plan) PlanView {
	return PlanView{
		Name:          plan.Name,
		DisplayName:   plan.DisplayName,
		Price:         catalog.DisplayPrice(plan.PriceCents),
		QueriesPerDay: plan.QueriesPerDay,
		Features:      []string(plan.Features),
	}
}

// Status reports the caller's subscription, resolved plan and quota usage.
func (s *service) Status(ctx context.Context, userID uuid.UUID, now time.Time) (*StatusView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	sub, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}

	var plan *models.Plan
	var subView *SubscriptionView
	if sub != nil {
		subView = &SubscriptionView{
			Status:            sub.Status.String(),
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		}
		if sub.Status == enums.SubscriptionStatusActive && sub.Plan != nil {
			plan = sub.Plan
		}
	}
	if plan == nil {
		plan, err = s.catalog.FreePlan(ctx)
		if err != nil {
			return nil, err
		}
	}

	usage, err := s.quota.Evaluate(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &StatusView{
		Subscription: subView,
		Plan:         NewPlanView(*plan),
		Usage:        *usage,
	}, nil
}

// CreateCheckoutSession starts a Stripe subscription checkout for a paid plan.
// The caller's user id goes into the session metadata; the webhook reconciler
// joins on it when the checkout completes.
func (s *service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, planName string) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	planName = strings.TrimSpace(planName)
	if planName == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "plan is required")
	}

	plan, err := s.catalog.FindPlanByName(ctx, planName)
	if err != nil {
		return "", err
	}
	if plan == nil || !plan.IsActive {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}
	if plan.StripePriceID == nil || strings.TrimSpace(*plan.StripePriceID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "plan has no billing price")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    plan.StripePriceID,
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(s.siteURL + "/racun?checkout=success"),
		CancelURL:  stripe.String(s.siteURL + "/cenik"),
		Metadata:   map[string]string{"user_id": userID.String()},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": userID.String()},
		},
	}

	// Reuse the existing billing customer so Stripe does not mint a second one.
	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	if existing != nil && existing.StripeCustomerID != nil {
		params.Customer = existing.StripeCustomerID
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return session.URL, nil
}

// CreatePortalSession opens the Stripe billing portal for an existing customer.
func (s *service) CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	sub, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	if sub == nil || sub.StripeCustomerID == nil || strings.TrimSpace(*sub.StripeCustomerID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "no billing customer for user")
	}

	session, err := s.stripe.CreatePortalSession(ctx, &stripe.BillingPortalSessionParams{
		Customer:  sub.StripeCustomerID,
		ReturnURL: stripe.String(s.siteURL + "/racun"),
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create portal session")
	}
	return session.URL, nil
}
