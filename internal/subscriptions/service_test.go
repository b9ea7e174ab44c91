package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/pravnaai/pravnaai-backend/internal/quota"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	"github.com/pravnaai/pravnaai-backend/pkg/enums"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

type stubRepo struct {
	findByUserFn func(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }
func (s *stubRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if s.findByUserFn != nil {
		return s.findByUserFn(ctx, userID)
	}
	return nil, nil
}
func (s *stubRepo) FindByStripeSubscriptionID(ctx context.Context, id string) (*models.Subscription, error) {
	return nil, nil
}
func (s *stubRepo) Upsert(ctx context.Context, sub *models.Subscription) error { return nil }
func (s *stubRepo) Update(ctx context.Context, sub *models.Subscription) error { return nil }

type stubCatalog struct {
	plans    map[string]*models.Plan
	freePlan *models.Plan
}

func (s *stubCatalog) ListActivePlans(ctx context.Context) ([]models.Plan, error) { return nil, nil }
func (s *stubCatalog) FindPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	return s.plans[name], nil
}
func (s *stubCatalog) FindPlanByStripePriceID(ctx context.Context, priceID string) (*models.Plan, error) {
	return nil, nil
}
func (s *stubCatalog) FreePlan(ctx context.Context) (*models.Plan, error) {
	if s.freePlan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "free plan missing from catalog")
	}
	return s.freePlan, nil
}

type stubQuota struct {
	status *quota.Status
}

func (s *stubQuota) Evaluate(ctx context.Context, userID uuid.UUID, now time.Time) (*quota.Status, error) {
	if s.status != nil {
		return s.status, nil
	}
	return &quota.Status{Limit: 1, Remaining: 1, CanQuery: true, PlanName: "free"}, nil
}
func (s *stubQuota) Increment(ctx context.Context, userID uuid.UUID, now time.Time) error {
	return nil
}

type stubStripe struct {
	checkoutFn func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	portalFn   func(ctx context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

func (s *stubStripe) GetSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return nil, nil
}
func (s *stubStripe) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if s.checkoutFn != nil {
		return s.checkoutFn(ctx, params)
	}
	return &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_test"}, nil
}
func (s *stubStripe) CreatePortalSession(ctx context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	if s.portalFn != nil {
		return s.portalFn(ctx, params)
	}
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/session/bps_test"}, nil
}

func newSubsService(t *testing.T, repo Repository, cat *stubCatalog, sc StripeBillingClient) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Catalog: cat,
		Quota:   &stubQuota{},
		Stripe:  sc,
		SiteURL: "https://pravnaai.si/",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func paidCatalog() *stubCatalog {
	price := "price_basic_monthly"
	return &stubCatalog{
		freePlan: &models.Plan{Name: "free", DisplayName: "Brezplačni paket", QueriesPerDay: 1},
		plans: map[string]*models.Plan{
			"basic": {
				Name:          "basic",
				DisplayName:   "Osnovni paket",
				StripePriceID: &price,
				QueriesPerDay: 20,
				PriceCents:    999,
				IsActive:      true,
			},
		},
	}
}

func TestStatusWithoutSubscriptionFallsBackToFree(t *testing.T) {
	svc := newSubsService(t, &stubRepo{}, paidCatalog(), &stubStripe{})

	view, err := svc.Status(context.Background(), uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.Subscription != nil {
		t.Fatalf("expected nil subscription view, got %+v", view.Subscription)
	}
	if view.Plan.Name != "free" {
		t.Fatalf("expected free plan, got %+v", view.Plan)
	}
}

func TestStatusActiveSubscriptionUsesItsPlan(t *testing.T) {
	end := time.Now().Add(20 * 24 * time.Hour)
	repo := &stubRepo{findByUserFn: func(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
		return &models.Subscription{
			Status:           enums.SubscriptionStatusActive,
			CurrentPeriodEnd: &end,
			Plan:             &models.Plan{Name: "basic", DisplayName: "Osnovni paket", QueriesPerDay: 20, PriceCents: 999},
		}, nil
	}}
	svc := newSubsService(t, repo, paidCatalog(), &stubStripe{})

	view, err := svc.Status(context.Background(), uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.Subscription == nil || view.Subscription.Status != "active" {
		t.Fatalf("unexpected subscription view %+v", view.Subscription)
	}
	if view.Plan.Name != "basic" || view.Plan.Price != "9.99" {
		t.Fatalf("unexpected plan view %+v", view.Plan)
	}
}

func TestStatusPastDueSubscriptionShowsFreePlan(t *testing.T) {
	repo := &stubRepo{findByUserFn: func(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
		return &models.Subscription{
			Status: enums.SubscriptionStatusPastDue,
			Plan:   &models.Plan{Name: "basic", QueriesPerDay: 20},
		}, nil
	}}
	svc := newSubsService(t, repo, paidCatalog(), &stubStripe{})

	view, err := svc.Status(context.Background(), uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.Subscription == nil || view.Subscription.Status != "past_due" {
		t.Fatalf("expected past_due subscription view, got %+v", view.Subscription)
	}
	if view.Plan.Name != "free" {
		t.Fatalf("expected free plan for past_due subscription, got %+v", view.Plan)
	}
}

func TestCreateCheckoutSessionStampsUserMetadata(t *testing.T) {
	userID := uuid.New()
	var captured *stripe.CheckoutSessionParams
	sc := &stubStripe{checkoutFn: func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		captured = params
		return &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_test"}, nil
	}}
	svc := newSubsService(t, &stubRepo{}, paidCatalog(), sc)

	url, err := svc.CreateCheckoutSession(context.Background(), userID, "basic")
	if err != nil {
		t.Fatalf("create checkout session: %v", err)
	}
	if url == "" {
		t.Fatal("expected session url")
	}
	if captured.Metadata["user_id"] != userID.String() {
		t.Fatalf("user_id missing from session metadata: %+v", captured.Metadata)
	}
	if captured.SubscriptionData == nil || captured.SubscriptionData.Metadata["user_id"] != userID.String() {
		t.Fatalf("user_id missing from subscription metadata")
	}
	if captured.Mode == nil || *captured.Mode != string(stripe.CheckoutSessionModeSubscription) {
		t.Fatalf("expected subscription mode, got %v", captured.Mode)
	}
	if len(captured.LineItems) != 1 || *captured.LineItems[0].Price != "price_basic_monthly" {
		t.Fatalf("unexpected line items %+v", captured.LineItems)
	}
}

func TestCreateCheckoutSessionReusesCustomer(t *testing.T) {
	customerID := "cus_123"
	repo := &stubRepo{findByUserFn: func(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
		return &models.Subscription{StripeCustomerID: &customerID}, nil
	}}
	var captured *stripe.CheckoutSessionParams
	sc := &stubStripe{checkoutFn: func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		captured = params
		return &stripe.CheckoutSession{URL: "https://checkout.stripe.com/pay/cs_test"}, nil
	}}
	svc := newSubsService(t, repo, paidCatalog(), sc)

	if _, err := svc.CreateCheckoutSession(context.Background(), uuid.New(), "basic"); err != nil {
		t.Fatalf("create checkout session: %v", err)
	}
	if captured.Customer == nil || *captured.Customer != customerID {
		t.Fatalf("expected existing customer to be reused, got %v", captured.Customer)
	}
}

func TestCreateCheckoutSessionUnknownPlan(t *testing.T) {
	svc := newSubsService(t, &stubRepo{}, paidCatalog(), &stubStripe{})

	_, err := svc.CreateCheckoutSession(context.Background(), uuid.New(), "enterprise")
	if err == nil {
		t.Fatal("expected error for unknown plan")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCreateCheckoutSessionFreePlanHasNoPrice(t *testing.T) {
	cat := paidCatalog()
	cat.plans["free"] = &models.Plan{Name: "free", IsActive: true, QueriesPerDay: 1}
	svc := newSubsService(t, &stubRepo{}, cat, &stubStripe{})

	_, err := svc.CreateCheckoutSession(context.Background(), uuid.New(), "free")
	if err == nil {
		t.Fatal("expected error for plan without price")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreatePortalSessionRequiresCustomer(t *testing.T) {
	svc := newSubsService(t, &stubRepo{}, paidCatalog(), &stubStripe{})

	_, err := svc.CreatePortalSession(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error without billing customer")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreatePortalSessionReturnsURL(t *testing.T) {
	customerID := "cus_123"
	repo := &stubRepo{findByUserFn: func(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
		return &models.Subscription{StripeCustomerID: &customerID}, nil
	}}
	var captured *stripe.BillingPortalSessionParams
	sc := &stubStripe{portalFn: func(ctx context.Context, params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
		captured = params
		return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/session/bps_test"}, nil
	}}
	svc := newSubsService(t, repo, paidCatalog(), sc)

	url, err := svc.CreatePortalSession(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("create portal session: %v", err)
	}
	if url != "https://billing.stripe.com/session/bps_test" {
		t.Fatalf("unexpected url %q", url)
	}
	if captured.Customer == nil || *captured.Customer != customerID {
		t.Fatalf("expected customer %s, got %v", customerID, captured.Customer)
	}
	if captured.ReturnURL == nil || *captured.ReturnURL != "https://pravnaai.si/racun" {
		t.Fatalf("unexpected return url %v", captured.ReturnURL)
	}
}
