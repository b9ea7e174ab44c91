package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/internal/quota"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
	"github.com/pravnaai/pravnaai-backend/pkg/metrics"
	"github.com/pravnaai/pravnaai-backend/pkg/openai"
)

// QuotaExceededMessage is shown when the daily limit is spent.
const QuotaExceededMessage = "Dosegli ste dnevno omejitev poizvedb. Nadgradite svoj paket za več poizvedb."

type aiClient interface {
	StreamChat(ctx context.Context, messages []openai.Message, onDelta func(delta string) error) (string, error)
	Model() string
}

// QueryInput is one legal question, either an initial intake or a follow-up.
type QueryInput struct {
	Category         string
	Role             string
	Problem          string
	Duration         string
	Details          string
	ConversationID   *uuid.UUID
	FollowUpQuestion string
	History          []HistoryTurn
}

// Result is the completed (possibly partial) assistant reply.
type Result struct {
	Content         string
	ConversationID  *uuid.UUID
	EstimatedTokens int
}

// Service answers legal questions against the user's quota.
type Service interface {
	Ask(ctx context.Context, userID uuid.UUID, input QueryInput, now time.Time, onDelta func(delta string) error) (*Result, error)
	CreateConversation(ctx context.Context, userID uuid.UUID, title, category string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]models.Message, error)
}

// ServiceParams groups dependencies for the chat service.
type ServiceParams struct {
	Repo    Repository
	Quota   quota.Service
	AI      aiClient
	Logger  *logger.Logger
	Metrics *metrics.QuotaMetrics
}

type service struct {
	repo    Repository
	quota   quota.Service
	ai      aiClient
	logg    *logger.Logger
	metrics *metrics.QuotaMetrics
}

// NewService builds a chat service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("chat repo required")
	}
	if params.Quota == nil {
		return nil, fmt.Errorf("quota service required")
	}
	if params.AI == nil {
		return nil, fmt.Errorf("ai client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		quota:   params.Quota,
		ai:      params.AI,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Ask checks the quota, streams the completion through onDelta and accounts
// for the consumed query. The quota gate runs before any model call; once the
// model has produced output, persistence and accounting failures are logged
// but never surfaced, because the user already has the answer.
func (s *service) Ask(ctx context.Context, userID uuid.UUID, input QueryInput, now time.Time, onDelta func(delta string) error) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	prompt, err := s.buildPrompt(input)
	if err != nil {
		return nil, err
	}

	status, err := s.quota.Evaluate(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if !status.CanQuery {
		s.metrics.IncDenied(status.PlanName)
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, QuotaExceededMessage).
			WithDetails(map[string]any{"remaining": status.Remaining, "limit": status.Limit})
	}

	if input.ConversationID != nil {
		if err := s.ensureOwnership(ctx, userID, *input.ConversationID); err != nil {
			return nil, err
		}
	}

	messages := []openai.Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prompt},
	}
	content, streamErr := s.ai.StreamChat(ctx, messages, onDelta)
	if content == "" {
		if streamErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, streamErr, "chat completion")
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "empty completion")
	}
	if streamErr != nil {
		// Client went away mid-stream. Keep the partial reply and account for it.
		s.logg.Warn(ctx, fmt.Sprintf("chat stream interrupted, persisting partial reply: %v", streamErr))
	}

	result := &Result{
		Content:         content,
		ConversationID:  input.ConversationID,
		EstimatedTokens: estimateTokens(prompt) + estimateTokens(content),
	}

	// The request context dies with the client; persistence and accounting
	// must outlive the disconnect.
	ctx = context.WithoutCancel(ctx)
	s.persist(ctx, userID, input.ConversationID, prompt, content)

	if err := s.quota.Increment(ctx, userID, now); err != nil {
		s.logg.Error(ctx, "increment daily usage", err)
	}

	return result, nil
}

func (s *service) buildPrompt(input QueryInput) (string, error) {
	if q := strings.TrimSpace(input.FollowUpQuestion); q != "" {
		return BuildFollowUpPrompt(input.History, q), nil
	}
	if strings.TrimSpace(input.Details) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "details or follow-up question required")
	}
	return BuildUserPrompt(CaseDetails{
		Category: input.Category,
		Role:     input.Role,
		Problem:  input.Problem,
		Duration: input.Duration,
		Details:  input.Details,
	}), nil
}

func (s *service) ensureOwnership(ctx context.Context, userID, conversationID uuid.UUID) error {
	conv, err := s.repo.FindConversationByID(ctx, conversationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup conversation")
	}
	if conv == nil || conv.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
	}
	return nil
}

func (s *service) persist(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, prompt, content string) {
	if conversationID == nil {
		return
	}
	if err := s.repo.CreateMessage(ctx, &models.Message{
		ConversationID: *conversationID,
		Role:           "assistant",
		Content:        content,
	}); err != nil {
		s.logg.Error(ctx, "persist assistant message", err)
	}
	if err := s.repo.CreateTokenUsage(ctx, &models.TokenUsage{
		UserID:           userID,
		ConversationID:   conversationID,
		PromptTokens:     estimateTokens(prompt),
		CompletionTokens: estimateTokens(content),
		TotalTokens:      estimateTokens(prompt) + estimateTokens(content),
		Model:            s.ai.Model(),
	}); err != nil {
		s.logg.Error(ctx, "persist token usage", err)
	}
}

func (s *service) CreateConversation(ctx context.Context, userID uuid.UUID, title, category string) (*models.Conversation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	conv := &models.Conversation{
		UserID: userID,
		Title:  title,
	}
	if c := strings.TrimSpace(category); c != "" {
		conv.Category = &c
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create conversation")
	}
	return conv, nil
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	convs, err := s.repo.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conversations")
	}
	return convs, nil
}

func (s *service) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]models.Message, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.ensureOwnership(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}
	return msgs, nil
}

// estimateTokens mirrors the 4-chars-per-token heuristic used for usage rows.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
