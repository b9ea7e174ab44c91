package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/api/middleware"
	"github.com/pravnaai/pravnaai-backend/api/responses"
	"github.com/pravnaai/pravnaai-backend/api/validators"
	"github.com/pravnaai/pravnaai-backend/internal/chat"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
)

type chatRequest struct {
	Category       string            `json:"category"`
	Role           string            `json:"role"`
	Problem        string            `json:"problem"`
	Duration       string            `json:"duration"`
	Details        string            `json:"details"`
	ConversationID string            `json:"conversation_id" validate:"omitempty,uuid"`
	Question       string            `json:"question"`
	History        []chatHistoryTurn `json:"history" validate:"omitempty,dive"`
}

type chatHistoryTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Chat streams a legal answer as plain text. Errors detected before the first
// byte go out as JSON; once streaming has started the connection just ends.
func Chat(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload chatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := chat.QueryInput{
			Category:         payload.Category,
			Role:             payload.Role,
			Problem:          payload.Problem,
			Duration:         payload.Duration,
			Details:          payload.Details,
			FollowUpQuestion: payload.Question,
			History:          toHistory(payload.History),
		}
		if raw := strings.TrimSpace(payload.ConversationID); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid conversation id"))
				return
			}
			input.ConversationID = &id
		}

		flusher, _ := w.(http.Flusher)
		started := false
		onDelta := func(delta string) error {
			if !started {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("Cache-Control", "no-cache")
				w.WriteHeader(http.StatusOK)
				started = true
			}
			if _, err := w.Write([]byte(delta)); err != nil {
				return err
			}
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		}

		if _, err := svc.Ask(ctx, userID, input, time.Now(), onDelta); err != nil {
			if !started {
				responses.WriteError(ctx, logg, w, err)
			}
			return
		}
	}
}

func toHistory(turns []chatHistoryTurn) []chat.HistoryTurn {
	if len(turns) == 0 {
		return nil
	}
	history := make([]chat.HistoryTurn, 0, len(turns))
	for _, turn := range turns {
		history = append(history, chat.HistoryTurn{Role: turn.Role, Content: turn.Content})
	}
	return history
}
