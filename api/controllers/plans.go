package controllers

import (
	"context"
	"net/http"

	"github.com/pravnaai/pravnaai-backend/api/responses"
	"github.com/pravnaai/pravnaai-backend/internal/subscriptions"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
)

// PlanCatalog describes the catalog methods used by the HTTP controllers.
type PlanCatalog interface {
	ListActivePlans(ctx context.Context) ([]models.Plan, error)
}

type planListResponse struct {
	Plans []subscriptions.PlanView `json:"plans"`
}

// PlansList returns the active plan catalog for the pricing page. Public, no
// auth required.
func PlansList(cat PlanCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if cat == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan catalog unavailable"))
			return
		}

		plans, err := cat.ListActivePlans(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views := make([]subscriptions.PlanView, 0, len(plans))
		for _, plan := range plans {
			views = append(views, subscriptions.NewPlanView(plan))
		}
		responses.WriteSuccess(w, planListResponse{Plans: views})
	}
}
