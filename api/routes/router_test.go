package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/internal/chat"
	"github.com/pravnaai/pravnaai-backend/internal/documents"
	"github.com/pravnaai/pravnaai-backend/internal/quota"
	"github.com/pravnaai/pravnaai-backend/internal/reminders"
	"github.com/pravnaai/pravnaai-backend/internal/subscriptions"
	pkgauth "github.com/pravnaai/pravnaai-backend/pkg/auth"
	"github.com/pravnaai/pravnaai-backend/pkg/config"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
)

type stubCatalogService struct{}

func (s *stubCatalogService) ListActivePlans(ctx context.Context) ([]models.Plan, error) {
	return []models.Plan{
		{Name: "free", DisplayName: "Brezplačni paket", QueriesPerDay: 1},
		{Name: "basic", DisplayName: "Osnovni paket", QueriesPerDay: 20, PriceCents: 999},
	}, nil
}
func (s *stubCatalogService) FindPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	return nil, nil
}
func (s *stubCatalogService) FindPlanByStripePriceID(ctx context.Context, priceID string) (*models.Plan, error) {
	return nil, nil
}
func (s *stubCatalogService) FreePlan(ctx context.Context) (*models.Plan, error) {
	return &models.Plan{Name: "free", QueriesPerDay: 1}, nil
}

type stubChatService struct{}

func (s *stubChatService) Ask(ctx context.Context, userID uuid.UUID, input chat.QueryInput, now time.Time, onDelta func(delta string) error) (*chat.Result, error) {
	if onDelta != nil {
		_ = onDelta("Pozdravljeni.")
	}
	return &chat.Result{Content: "Pozdravljeni."}, nil
}
func (s *stubChatService) CreateConversation(ctx context.Context, userID uuid.UUID, title, category string) (*models.Conversation, error) {
	return &models.Conversation{ID: uuid.New(), UserID: userID, Title: title}, nil
}
func (s *stubChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	return nil, nil
}
func (s *stubChatService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]models.Message, error) {
	return nil, nil
}

type stubSubscriptionsService struct{}

func (s *stubSubscriptionsService) Status(ctx context.Context, userID uuid.UUID, now time.Time) (*subscriptions.StatusView, error) {
	return &subscriptions.StatusView{
		Plan:  subscriptions.PlanView{Name: "free", QueriesPerDay: 1},
		Usage: quota.Status{Limit: 1, Remaining: 1, CanQuery: true, PlanName: "free"},
	}, nil
}
func (s *stubSubscriptionsService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, planName string) (string, error) {
	return "https://checkout.stripe.com/pay/cs_test", nil
}
func (s *stubSubscriptionsService) CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	return "https://billing.stripe.com/session/bps_test", nil
}

type stubRemindersService struct{}

func (s *stubRemindersService) Create(ctx context.Context, userID uuid.UUID, input reminders.CreateInput) (*models.Reminder, error) {
	return &models.Reminder{ID: uuid.New(), UserID: userID, Title: input.Title, DueDate: input.DueDate}, nil
}
func (s *stubRemindersService) ListOpen(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error) {
	return nil, nil
}
func (s *stubRemindersService) Complete(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error) {
	return &models.Reminder{ID: reminderID, UserID: userID, IsCompleted: true}, nil
}
func (s *stubRemindersService) Delete(ctx context.Context, userID, reminderID uuid.UUID) error {
	return nil
}

type stubDocumentsService struct{}

func (s *stubDocumentsService) Upload(ctx context.Context, userID uuid.UUID, input documents.UploadInput) (*models.Document, error) {
	return &models.Document{ID: uuid.New(), UserID: userID, FileName: input.FileName}, nil
}
func (s *stubDocumentsService) Get(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, string, error) {
	return &models.Document{ID: documentID, UserID: userID}, "https://storage.googleapis.com/legal-documents/obj?sig", nil
}
func (s *stubDocumentsService) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	return nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "test-secret", Issuer: "pravnaai-test", ExpirationMinutes: 60}
	return NewRouter(
		cfg,
		nil,
		nil,
		nil,
		nil,
		nil,
		&stubCatalogService{},
		&stubChatService{},
		&stubSubscriptionsService{},
		&stubRemindersService{},
		&stubDocumentsService{},
		nil,
		nil,
		nil,
	)
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterPublicPlansNeedsNoAuth(t *testing.T) {
	router := testRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/public/plans", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Plans []struct {
				Name string `json:"name"`
			} `json:"plans"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(envelope.Data.Plans) != 2 {
		t.Fatalf("expected two plans, got %+v", envelope.Data)
	}
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := testRouter(t)
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/chat"},
		{http.MethodGet, "/api/v1/conversations"},
		{http.MethodGet, "/api/v1/subscriptions/status"},
		{http.MethodPost, "/api/v1/subscriptions/checkout"},
		{http.MethodPost, "/api/v1/subscriptions/portal"},
		{http.MethodGet, "/api/v1/reminders"},
		{http.MethodPost, "/api/v1/reminders"},
		{http.MethodPost, "/api/v1/documents/upload"},
	}
	for _, route := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestRouterAuthorizedStatusRequest(t *testing.T) {
	router := testRouter(t)
	token, err := pkgauth.MintAccessToken(config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "pravnaai-test",
		ExpirationMinutes: 60,
	}, time.Now(), pkgauth.AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouterWebhookRejectsUnsignedPayload(t *testing.T) {
	router := testRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsigned webhook, got %d", rec.Code)
	}
}
