package documents

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
)

// MaxFileSize is the upload ceiling.
const MaxFileSize = 10 << 20

// signedURLTTL bounds how long a download link stays valid.
const signedURLTTL = time.Hour

var allowedTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

type objectStore interface {
	UploadObject(ctx context.Context, bucket, object, contentType string, body io.Reader) error
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// UploadInput carries one file upload.
type UploadInput struct {
	FileName       string
	ContentType    string
	Size           int64
	ConversationID *uuid.UUID
	Body           io.Reader
}

// Service stores legal documents in object storage with a metadata row per
// file.
type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, input UploadInput) (*models.Document, error)
	Get(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, string, error)
	Delete(ctx context.Context, userID, documentID uuid.UUID) error
}

// ServiceParams groups dependencies for the document service.
type ServiceParams struct {
	Repo   Repository
	Store  objectStore
	Logger *logger.Logger
}

type service struct {
	repo  Repository
	store objectStore
	logg  *logger.Logger
}

// NewService builds a document service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("document repo required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:  params.Repo,
		store: params.Store,
		logg:  params.Logger,
	}, nil
}

func (s *service) Upload(ctx context.Context, userID uuid.UUID, input UploadInput) (*models.Document, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Body == nil || strings.TrimSpace(input.FileName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if _, ok := allowedTypes[input.ContentType]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type")
	}
	if input.Size <= 0 || input.Size > MaxFileSize {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the 10MB limit")
	}

	objectPath := fmt.Sprintf("%s/%d-%s%s",
		userID,
		time.Now().UnixMilli(),
		uuid.NewString()[:8],
		path.Ext(input.FileName),
	)

	if err := s.store.UploadObject(ctx, "", objectPath, input.ContentType, io.LimitReader(input.Body, MaxFileSize)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload document")
	}

	doc := &models.Document{
		UserID:         userID,
		ConversationID: input.ConversationID,
		FileName:       input.FileName,
		FilePath:       objectPath,
		FileType:       input.ContentType,
		FileSize:       input.Size,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		// The metadata row is the source of truth; without it the object is
		// orphaned, so remove it again.
		if cleanupErr := s.store.DeleteObject(ctx, "", objectPath); cleanupErr != nil {
			s.logg.Error(ctx, "cleanup orphaned upload", cleanupErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save document metadata")
	}
	return doc, nil
}

func (s *service) Get(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, string, error) {
	doc, err := s.owned(ctx, userID, documentID)
	if err != nil {
		return nil, "", err
	}
	signedURL, err := s.store.SignedReadURL("", doc.FilePath, signedURLTTL)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}
	return doc, signedURL, nil
}

func (s *service) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	doc, err := s.owned(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteObject(ctx, "", doc.FilePath); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stored file")
	}
	if err := s.repo.Delete(ctx, documentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document metadata")
	}
	return nil
}

func (s *service) owned(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup document")
	}
	if doc == nil || doc.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}
	return doc, nil
}
