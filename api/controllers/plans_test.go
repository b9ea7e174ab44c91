package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

type stubPlanCatalog struct {
	plans []models.Plan
	err   error
}

func (s *stubPlanCatalog) ListActivePlans(ctx context.Context) ([]models.Plan, error) {
	return s.plans, s.err
}

func TestPlansListReturnsCatalogOrder(t *testing.T) {
	cat := &stubPlanCatalog{plans: []models.Plan{
		{Name: "free", DisplayName: "Brezplačni paket", QueriesPerDay: 1},
		{Name: "basic", DisplayName: "Osnovni paket", QueriesPerDay: 20, PriceCents: 999},
		{Name: "professional", DisplayName: "Profesionalni paket", QueriesPerDay: 100, PriceCents: 2999},
	}}
	handler := PlansList(cat, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/plans", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Plans []struct {
				Name  string `json:"name"`
				Price string `json:"price"`
			} `json:"plans"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(envelope.Data.Plans) != 3 {
		t.Fatalf("expected three plans, got %d", len(envelope.Data.Plans))
	}
	if envelope.Data.Plans[0].Name != "free" || envelope.Data.Plans[2].Price != "29.99" {
		t.Fatalf("unexpected plan payload %+v", envelope.Data.Plans)
	}
}

func TestPlansListPropagatesCatalogError(t *testing.T) {
	cat := &stubPlanCatalog{err: pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")}
	handler := PlansList(cat, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/plans", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
