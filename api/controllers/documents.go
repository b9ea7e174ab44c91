package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/api/middleware"
	"github.com/pravnaai/pravnaai-backend/api/responses"
	"github.com/pravnaai/pravnaai-backend/internal/documents"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
)

type documentResponse struct {
	ID             string  `json:"id"`
	ConversationID *string `json:"conversation_id,omitempty"`
	FileName       string  `json:"file_name"`
	FileType       string  `json:"file_type"`
	FileSize       int64   `json:"file_size"`
	CreatedAt      string  `json:"created_at"`
}

type documentGetResponse struct {
	Document  documentResponse `json:"document"`
	SignedURL string           `json:"signed_url"`
}

// DocumentUpload accepts a multipart file under the "file" field and stores it.
func DocumentUpload(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		// One extra byte so oversized uploads fail validation instead of
		// silently truncating.
		r.Body = http.MaxBytesReader(w, r.Body, documents.MaxFileSize+1<<20)
		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field is required"))
			return
		}
		defer file.Close()

		input := documents.UploadInput{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
		if raw := strings.TrimSpace(r.FormValue("conversation_id")); raw != "" {
			conversationID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid conversation id"))
				return
			}
			input.ConversationID = &conversationID
		}

		doc, err := svc.Upload(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, documentToResponse(*doc))
	}
}

// DocumentGet returns a document's metadata with a short-lived download link.
func DocumentGet(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		documentID, err := documentIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		doc, signedURL, err := svc.Get(ctx, userID, documentID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, documentGetResponse{
			Document:  documentToResponse(*doc),
			SignedURL: signedURL,
		})
	}
}

// DocumentDelete removes the stored file and its metadata.
func DocumentDelete(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "document service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(ctx)
		if userID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		documentID, err := documentIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID, documentID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, struct {
			Deleted bool `json:"deleted"`
		}{Deleted: true})
	}
}

func documentIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "documentId"))
	documentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document id")
	}
	return documentID, nil
}

func documentToResponse(doc models.Document) documentResponse {
	out := documentResponse{
		ID:        doc.ID.String(),
		FileName:  doc.FileName,
		FileType:  doc.FileType,
		FileSize:  doc.FileSize,
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
	}
	if doc.ConversationID != nil {
		id := doc.ConversationID.String()
		out.ConversationID = &id
	}
	return out
}
