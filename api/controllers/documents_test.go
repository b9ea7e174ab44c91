package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pravnaai/pravnaai-backend/api/middleware"
	"github.com/pravnaai/pravnaai-backend/internal/documents"
	"github.com/pravnaai/pravnaai-backend/pkg/db/models"
	pkgerrors "github.com/pravnaai/pravnaai-backend/pkg/errors"
)

type documentStubService struct {
	uploadFn func(ctx context.Context, userID uuid.UUID, input documents.UploadInput) (*models.Document, error)
	getFn    func(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, string, error)
	deleteFn func(ctx context.Context, userID, documentID uuid.UUID) error
}

func (s *documentStubService) Upload(ctx context.Context, userID uuid.UUID, input documents.UploadInput) (*models.Document, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, userID, input)
	}
	return &models.Document{
		ID:        uuid.New(),
		UserID:    userID,
		FileName:  input.FileName,
		FilePath:  userID.String() + "/obj",
		FileType:  input.ContentType,
		FileSize:  input.Size,
		CreatedAt: time.Now(),
	}, nil
}

func (s *documentStubService) Get(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, string, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID, documentID)
	}
	return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
}

func (s *documentStubService) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, documentID)
	}
	return nil
}

var _ documents.Service = (*documentStubService)(nil)

func multipartUploadRequest(t *testing.T, fileName, contentType, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func TestDocumentUploadReturns201(t *testing.T) {
	var got documents.UploadInput
	svc := &documentStubService{uploadFn: func(ctx context.Context, userID uuid.UUID, input documents.UploadInput) (*models.Document, error) {
		got = input
		return &models.Document{
			ID:        uuid.New(),
			UserID:    userID,
			FileName:  input.FileName,
			FilePath:  userID.String() + "/obj.pdf",
			FileType:  input.ContentType,
			FileSize:  input.Size,
			CreatedAt: time.Now(),
		}, nil
	}}
	handler := DocumentUpload(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartUploadRequest(t, "pogodba.pdf", "application/pdf", "%PDF-1.4"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got.FileName != "pogodba.pdf" || got.ContentType != "application/pdf" || got.Size != int64(len("%PDF-1.4")) {
		t.Fatalf("unexpected upload input %+v", got)
	}
	var envelope struct {
		Data documentResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.FileName != "pogodba.pdf" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestDocumentUploadRequiresFileField(t *testing.T) {
	handler := DocumentUpload(&documentStubService{}, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("conversation_id", uuid.NewString()); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestDocumentUploadRejectsUnsupportedType(t *testing.T) {
	svc := &documentStubService{uploadFn: func(ctx context.Context, userID uuid.UUID, input documents.UploadInput) (*models.Document, error) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type")
	}}
	handler := DocumentUpload(svc, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartUploadRequest(t, "skripta.exe", "application/x-msdownload", "MZ"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestDocumentGetReturnsSignedURL(t *testing.T) {
	documentID := uuid.New()
	svc := &documentStubService{getFn: func(ctx context.Context, userID, id uuid.UUID) (*models.Document, string, error) {
		return &models.Document{
			ID:        id,
			UserID:    userID,
			FileName:  "pogodba.pdf",
			FilePath:  userID.String() + "/obj.pdf",
			FileType:  "application/pdf",
			FileSize:  1024,
			CreatedAt: time.Now(),
		}, "https://storage.googleapis.com/legal-documents/obj.pdf?Signature=sig", nil
	}}
	handler := DocumentGet(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/documents/"+documentID.String(), "")
	req = withURLParam(req, "documentId", documentID.String())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data documentGetResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.SignedURL == "" || envelope.Data.Document.FileName != "pogodba.pdf" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestDocumentGetNotFoundForForeignDocument(t *testing.T) {
	handler := DocumentGet(&documentStubService{}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/documents/x", "")
	req = withURLParam(req, "documentId", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestDocumentDeleteRejectsBadID(t *testing.T) {
	handler := DocumentDelete(&documentStubService{}, nil)

	req := authedRequest(http.MethodDelete, "/api/v1/documents/not-a-uuid", "")
	req = withURLParam(req, "documentId", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
