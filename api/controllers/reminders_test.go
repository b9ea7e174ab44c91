package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/internal/reminders"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

type reminderStubService struct {
	createFn   func(ctx context.Context, userID uuid.UUID, input reminders.CreateInput) (*models.Reminder, error)
	listFn     func(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error)
	completeFn func(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error)
	deleteFn   func(ctx context.Context, userID, reminderID uuid.UUID) error
}

func (s *reminderStubService) Create(ctx context.Context, userID uuid.UUID, input reminders.CreateInput) (*models.Reminder, error) {
	if s.createFn != nil {
		return s.createFn(ctx, userID, input)
	}
	return &models.Reminder{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     input.Title,
		DueDate:   input.DueDate,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

func (s *reminderStubService) ListOpen(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID)
	}
	return nil, nil
}

func (s *reminderStubService) Complete(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error) {
	if s.completeFn != nil {
		return s.completeFn(ctx, userID, reminderID)
	}
	return &models.Reminder{ID: reminderID, UserID: userID, IsCompleted: true}, nil
}

func (s *reminderStubService) Delete(ctx context.Context, userID, reminderID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, reminderID)
	}
	return nil
}

var _ reminders.Service = (*reminderStubService)(nil)

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestReminderCreateReturns201(t *testing.T) {
	svc := &reminderStubService{}
	handler := ReminderCreate(svc, nil)

	body := `{"title":"Rok za ugovor zoper sklep","due_date":"2026-04-01T09:00:00Z"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/reminders", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data reminderResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.Title != "Rok za ugovor zoper sklep" || envelope.Data.IsCompleted {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestReminderCreateRejectsBadDueDate(t *testing.T) {
	handler := ReminderCreate(&reminderStubService{}, nil)

	body := `{"title":"Rok","due_date":"jutri"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/reminders", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestReminderCreateRequiresTitle(t *testing.T) {
	handler := ReminderCreate(&reminderStubService{}, nil)

	body := `{"due_date":"2026-04-01T09:00:00Z"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/reminders", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestReminderListReturnsOpenReminders(t *testing.T) {
	now := time.Now()
	svc := &reminderStubService{listFn: func(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error) {
		return []models.Reminder{
			{ID: uuid.New(), UserID: userID, Title: "Narok na sodišču", DueDate: now, CreatedAt: now, UpdatedAt: now},
			{ID: uuid.New(), UserID: userID, Title: "Oddaja vloge", DueDate: now.Add(48 * time.Hour), CreatedAt: now, UpdatedAt: now},
		}, nil
	}}
	handler := ReminderList(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/reminders", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data reminderListResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(envelope.Data.Reminders) != 2 {
		t.Fatalf("expected two reminders, got %+v", envelope.Data)
	}
}

func TestReminderCompleteReturnsUpdatedReminder(t *testing.T) {
	handler := ReminderComplete(&reminderStubService{}, nil)

	req := withURLParam(authedRequest(http.MethodPatch, "/api/v1/reminders/x/complete", ""), "reminderId", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data reminderResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !envelope.Data.IsCompleted {
		t.Fatalf("expected completed reminder, got %+v", envelope.Data)
	}
}

func TestReminderCompleteRejectsBadID(t *testing.T) {
	handler := ReminderComplete(&reminderStubService{}, nil)

	req := withURLParam(authedRequest(http.MethodPatch, "/api/v1/reminders/not-a-uuid/complete", ""), "reminderId", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReminderDeleteNotFoundForForeignReminder(t *testing.T) {
	svc := &reminderStubService{deleteFn: func(ctx context.Context, userID, reminderID uuid.UUID) error {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
	}}
	handler := ReminderDelete(svc, nil)

	req := withURLParam(authedRequest(http.MethodDelete, "/api/v1/reminders/x", ""), "reminderId", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
	}
}
