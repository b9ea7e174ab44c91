package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

// CreateInput carries the fields of a new reminder.
type CreateInput struct {
	Title          string
	Description    string
	DueDate        time.Time
	ConversationID *uuid.UUID
}

// Service manages a user's deadline reminders.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Reminder, error)
	ListOpen(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error)
	Complete(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error)
	Delete(ctx context.Context, userID, reminderID uuid.UUID) error
}

// ServiceParams groups dependencies for the reminder service.
type ServiceParams struct {
	Repo Repository
}

type service struct {
	repo Repository
}

// NewService builds a reminder service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reminder repo required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Reminder, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.DueDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date is required")
	}

	reminder := &models.Reminder{
		UserID:         userID,
		ConversationID: input.ConversationID,
		Title:          title,
		DueDate:        input.DueDate,
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		reminder.Description = &desc
	}
	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reminder")
	}
	return reminder, nil
}

func (s *service) ListOpen(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	out, err := s.repo.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reminders")
	}
	return out, nil
}

func (s *service) Complete(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error) {
	reminder, err := s.owned(ctx, userID, reminderID)
	if err != nil {
		return nil, err
	}
	if reminder.IsCompleted {
		return reminder, nil
	}
	reminder.IsCompleted = true
	if err := s.repo.Update(ctx, reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete reminder")
	}
	return reminder, nil
}

func (s *service) Delete(ctx context.Context, userID, reminderID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, reminderID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, reminderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reminder")
	}
	return nil
}

func (s *service) owned(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	reminder, err := s.repo.FindByID(ctx, reminderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup reminder")
	}
	if reminder == nil || reminder.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
	}
	return reminder, nil
}
