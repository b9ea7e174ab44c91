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
	"github.com/pravnaai/pravnaai-backend/internal/reminders"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
)

type reminderCreateRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"omitempty,max=2000"`
	DueDate        string `json:"due_date" validate:"required"`
	ConversationID string `json:"conversation_id" validate:"omitempty,uuid"`
}

type reminderResponse struct {
	ID             string  `json:"id"`
	ConversationID *string `json:"conversation_id,omitempty"`
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	DueDate        string  `json:"due_date"`
	IsCompleted    bool    `json:"is_completed"`
	CreatedAt      string  `json:"created_at"`
}

type reminderListResponse struct {
	Reminders []reminderResponse `json:"reminders"`
}

// ReminderCreate records a new deadline reminder for the caller.
func ReminderCreate(svc reminders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reminder service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload reminderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "due_date must be RFC 3339"))
			return
		}

		input := reminders.CreateInput{
			Title:       payload.Title,
			Description: payload.Description,
			DueDate:     dueDate,
		}
		if raw := strings.TrimSpace(payload.ConversationID); raw != "" {
			conversationID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid conversation id"))
				return
			}
			input.ConversationID = &conversationID
		}

		reminder, err := svc.Create(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reminderToResponse(*reminder))
	}
}

// ReminderList returns the caller's open reminders, nearest deadline first.
func ReminderList(svc reminders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reminder service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		listed, err := svc.ListOpen(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result := make([]reminderResponse, 0, len(listed))
		for _, reminder := range listed {
			result = append(result, reminderToResponse(reminder))
		}
		responses.WriteSuccess(w, reminderListResponse{Reminders: result})
	}
}

// ReminderComplete marks a reminder as done.
func ReminderComplete(svc reminders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reminder service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		reminderID, err := reminderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		reminder, err := svc.Complete(ctx, userID, reminderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, reminderToResponse(*reminder))
	}
}

// ReminderDelete removes a reminder.
func ReminderDelete(svc reminders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reminder service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		reminderID, err := reminderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID, reminderID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, struct {
			Deleted bool `json:"deleted"`
		}{Deleted: true})
	}
}

func reminderIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "reminderId"))
	reminderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reminder id")
	}
	return reminderID, nil
}

func reminderToResponse(reminder models.Reminder) reminderResponse {
	out := reminderResponse{
		ID:          reminder.ID.String(),
		Title:       reminder.Title,
		Description: reminder.Description,
		DueDate:     reminder.DueDate.UTC().Format(time.RFC3339),
		IsCompleted: reminder.IsCompleted,
		CreatedAt:   reminder.CreatedAt.UTC().Format(time.RFC3339),
	}
	if reminder.ConversationID != nil {
		id := reminder.ConversationID.String()
		out.ConversationID = &id
	}
	return out
}
