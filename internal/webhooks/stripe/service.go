package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/pravnaai/pravnaai-backend/internal/catalog"
	"github.com/pravnaai/pravnaai-backend/internal/subscriptions"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	"github.com/pravnaai/pravnaai-backend/pkg/enums"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
	"github.com/pravnaai/pravnaai-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the webhook reconciler.
type ServiceParams struct {
	SubscriptionRepo  subscriptions.Repository
	Catalog           catalog.Service
	StripeClient      subscriptions.StripeBillingClient
	TransactionRunner txRunner
	Logger            *logger.Logger
	Metrics           *metrics.QuotaMetrics
}

// Service reconciles Stripe billing events into local subscription rows. It is
// the only writer of the subscriptions table.
type Service struct {
	subRepo  subscriptions.Repository
	catalog  catalog.Service
	stripe   subscriptions.StripeBillingClient
	txRunner txRunner
	logg     *logger.Logger
	metrics  *metrics.QuotaMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.SubscriptionRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription repo required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		subRepo:  params.SubscriptionRepo,
		catalog:  params.Catalog,
		stripe:   params.StripeClient,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// HandleEvent applies one verified Stripe event. A returned error means the
// event should be redelivered; unfixable payload problems are logged and
// acked so Stripe does not retry them forever.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithEventID(ctx, event.ID)

	var err error
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	case stripe.EventTypeInvoicePaymentFailed:
		err = s.handlePaymentFailed(ctx, event)
	default:
		s.metrics.IncStripeEvent(string(event.Type), "ignored")
		return nil
	}

	if err != nil {
		s.metrics.IncStripeEvent(string(event.Type), "failed")
		return err
	}
	s.metrics.IncStripeEvent(string(event.Type), "applied")
	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}
	if session.Mode != stripe.CheckoutSessionModeSubscription {
		return nil
	}

	userID, err := subscriptions.UserIDFromMetadata(session.Metadata)
	if err != nil {
		// Session was not created by us. Nothing to reconcile.
		s.logg.Warn(ctx, fmt.Sprintf("checkout session without usable user_id metadata: %v", err))
		return nil
	}

	if session.Subscription == nil || session.Subscription.ID == "" {
		s.logg.Warn(ctx, "subscription-mode checkout session without subscription id")
		return nil
	}

	stripeSub, err := s.stripe.GetSubscription(ctx, session.Subscription.ID, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
	}

	plan, err := s.resolvePlan(ctx, stripeSub)
	if err != nil {
		return err
	}
	if plan == nil {
		s.logg.Warn(ctx, fmt.Sprintf("no plan for price %q, ignoring checkout", subscriptions.PriceIDFromStripe(stripeSub)))
		return nil
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)
		sub := &models.Subscription{UserID: userID}
		if existing, err := repo.FindByUserID(ctx, userID); err != nil {
			return err
		} else if existing != nil {
			sub = existing
		}
		if err := subscriptions.ApplyStripeSubscription(sub, stripeSub, plan.ID); err != nil {
			return err
		}
		if session.Customer != nil && session.Customer.ID != "" {
			customerID := session.Customer.ID
			sub.StripeCustomerID = &customerID
		}
		return repo.Upsert(ctx, sub)
	})
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
	}

	stored, err := s.subRepo.FindByStripeSubscriptionID(ctx, stripeSub.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	if stored == nil {
		// Update arrived before the checkout completed, or the row belongs to
		// another environment. The checkout handler will materialize it.
		s.logg.Warn(ctx, fmt.Sprintf("update for unknown stripe subscription %q ignored", stripeSub.ID))
		return nil
	}

	planID := stored.PlanID
	plan, err := s.resolvePlan(ctx, &stripeSub)
	if err != nil {
		return err
	}
	if plan != nil {
		planID = plan.ID
	} else {
		s.logg.Warn(ctx, fmt.Sprintf("no plan for price %q, keeping current plan", subscriptions.PriceIDFromStripe(&stripeSub)))
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)
		if err := subscriptions.ApplyStripeSubscription(stored, &stripeSub, planID); err != nil {
			return err
		}
		return repo.Update(ctx, stored)
	})
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
	}

	stored, err := s.subRepo.FindByStripeSubscriptionID(ctx, stripeSub.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	if stored == nil {
		s.logg.Warn(ctx, fmt.Sprintf("delete for unknown stripe subscription %q ignored", stripeSub.ID))
		return nil
	}

	freePlan, err := s.catalog.FreePlan(ctx)
	if err != nil {
		return err
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)
		stored.PlanID = freePlan.ID
		stored.Status = enums.SubscriptionStatusCanceled
		stored.StripeSubscriptionID = nil
		stored.CancelAtPeriodEnd = false
		stored.CurrentPeriodStart = nil
		stored.CurrentPeriodEnd = nil
		return repo.Update(ctx, stored)
	})
}

func (s *Service) handlePaymentFailed(ctx context.Context, event *stripe.Event) error {
	subscriptionID := event.GetObjectValue("subscription")
	if subscriptionID == "" {
		return nil
	}

	stored, err := s.subRepo.FindByStripeSubscriptionID(ctx, subscriptionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	if stored == nil {
		return nil
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.subRepo.WithTx(tx)
		stored.Status = enums.SubscriptionStatusPastDue
		return repo.Update(ctx, stored)
	})
}

func (s *Service) resolvePlan(ctx context.Context, stripeSub *stripe.Subscription) (*models.Plan, error) {
	priceID := subscriptions.PriceIDFromStripe(stripeSub)
	if priceID == "" {
		return nil, nil
	}
	plan, err := s.catalog.FindPlanByStripePriceID(ctx, priceID)
	if err != nil {
		return nil, err
	}
	return plan, nil
}
