package subscriptions

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	"github.com/pravnaai/pravnaai-backend/pkg/enums"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

// MapStripeStatus folds Stripe's subscription states onto the local enum.
// Anything that does not clearly grant paid access maps to canceled, so an
// unrecognized state can never unlock a paid quota.
func MapStripeStatus(status stripe.SubscriptionStatus) enums.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return enums.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return enums.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPastDue:
		return enums.SubscriptionStatusPastDue
	default:
		return enums.SubscriptionStatusCanceled
	}
}

// PriceIDFromStripe returns the price id of the subscription's first item.
func PriceIDFromStripe(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price != nil {
		return sub.Items.Data[0].Price.ID
	}
	return ""
}

// PeriodFromStripe extracts the current billing period bounds. Stripe moved
// these onto the subscription items, so read them from the first item.
func PeriodFromStripe(sub *stripe.Subscription) (*time.Time, *time.Time) {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, nil
	}
	item := sub.Items.Data[0]
	return toTimePtr(item.CurrentPeriodStart), toTimePtr(item.CurrentPeriodEnd)
}

// UserIDFromMetadata extracts the user id stamped into checkout metadata.
func UserIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	if metadata == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "metadata is required")
	}
	raw, ok := metadata["user_id"]
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id missing from metadata")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id metadata")
	}
	return id, nil
}

// ApplyStripeSubscription mutates the local row with fresh Stripe state.
func ApplyStripeSubscription(target *models.Subscription, stripeSub *stripe.Subscription, planID uuid.UUID) error {
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "target subscription is nil")
	}
	if stripeSub == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "stripe subscription is nil")
	}

	target.StripeSubscriptionID = trimmedPtr(stripeSub.ID)
	if stripeSub.Customer != nil {
		target.StripeCustomerID = trimmedPtr(stripeSub.Customer.ID)
	}
	if planID != uuid.Nil {
		target.PlanID = planID
	}
	target.Status = MapStripeStatus(stripeSub.Status)
	target.CurrentPeriodStart, target.CurrentPeriodEnd = PeriodFromStripe(stripeSub)
	target.CancelAtPeriodEnd = stripeSub.CancelAtPeriodEnd
	return nil
}

func toTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func trimmedPtr(value string) *string {
	if s := strings.TrimSpace(value); s != "" {
		return &s
	}
	return nil
}
