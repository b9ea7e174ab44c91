package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/api/middleware"
	"github.com/pravnaai/pravnaai-backend/api/responses"
	"github.com/pravnaai/pravnaai-backend/api/validators"
	"github.com/pravnaai/pravnaai-backend/internal/chat"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
)

type conversationCreateRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Category string `json:"category" validate:"omitempty,max=50"`
}

type conversationResponse struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Category  *string `json:"category,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type conversationListResponse struct {
	Conversations []conversationResponse `json:"conversations"`
}

type messageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type messageListResponse struct {
	Messages []messageResponse `json:"messages"`
}

// ConversationCreate opens a new conversation for the caller.
func ConversationCreate(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload conversationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		conv, err := svc.CreateConversation(ctx, userID, payload.Title, payload.Category)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, conversationToResponse(*conv))
	}
}

// ConversationList returns the caller's conversations, newest activity first.
func ConversationList(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		convs, err := svc.ListConversations(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result := make([]conversationResponse, 0, len(convs))
		for _, conv := range convs {
			result = append(result, conversationToResponse(conv))
		}
		responses.WriteSuccess(w, conversationListResponse{Conversations: result})
	}
}

// ConversationMessages returns a conversation's messages in chronological order.
func ConversationMessages(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "conversationId"))
		conversationID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid conversation id"))
			return
		}

		msgs, err := svc.ListMessages(ctx, userID, conversationID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result := make([]messageResponse, 0, len(msgs))
		for _, msg := range msgs {
			result = append(result, messageResponse{
				ID:        msg.ID.String(),
				Role:      msg.Role,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		responses.WriteSuccess(w, messageListResponse{Messages: result})
	}
}

func conversationToResponse(conv models.Conversation) conversationResponse {
	return conversationResponse{
		ID:        conv.ID.String(),
		Title:     conv.Title,
		Category:  conv.Category,
		CreatedAt: conv.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: conv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
