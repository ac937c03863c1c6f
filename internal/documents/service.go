package documents

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"procurement-backend/internal/analyze"
	"procurement-backend/internal/classify"
	"procurement-backend/internal/shared/metrics"
	"procurement-backend/internal/shared/storage/object"
	"procurement-backend/internal/shared/telemetry"
	"procurement-backend/internal/shared/util"
)

// Allowed upload content types.
const (
	mimePDF  = "application/pdf"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedMimeTypes = map[string]struct{}{
	mimePDF:  {},
	mimeDOC:  {},
	mimeDOCX: {},
}

// Requester identifies the caller for ownership checks.
type Requester struct {
	ID    string
	Admin bool
}

// UploadInput carries the validated multipart fields for a new document.
type UploadInput struct {
	OwnerID      string
	ProjectID    string
	SOWID        string
	Filename     string
	MimeType     string
	SizeBytes    int64
	DocumentType string
	Notes        string
	Body         io.Reader
}

// StreamResult hands the caller an open reader over the stored bytes.
type StreamResult struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
	SizeBytes   int64
}

// Service coordinates storage, the registry and the processing engines.
type Service struct {
	Store          object.ObjectStore
	Repo           Repo
	Classifier     classify.Classifier
	Analyzer       analyze.Analyzer
	MaxUploadBytes int64
}

// Upload validates, stores and registers a new document. If the registry
// insert fails after the bytes were stored, the stored object is removed so
// no orphan remains.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	if in.Filename == "" {
		return Document{}, validationErrorf("filename is required")
	}
	if _, ok := allowedMimeTypes[in.MimeType]; !ok {
		return Document{}, validationErrorf("Invalid file type. Only PDF, DOC, and DOCX are allowed.")
	}
	if in.SizeBytes <= 0 {
		return Document{}, validationErrorf("uploaded file is empty")
	}
	if in.SizeBytes > s.maxUploadBytes() {
		return Document{}, validationErrorf("File size exceeds 20MB limit")
	}
	docType := TypeOther
	if in.DocumentType != "" {
		if !ValidDocumentType(in.DocumentType) {
			return Document{}, validationErrorf("unknown document type %q", in.DocumentType)
		}
		docType = in.DocumentType
	}

	safeName, err := util.SanitizeFileName(in.Filename)
	if err != nil {
		return Document{}, validationErrorf("invalid filename: %v", err)
	}

	id := uuid.NewString()
	storedName := id + strings.ToLower(filepath.Ext(safeName))

	written, err := s.Store.Save(ctx, storedName, io.LimitReader(in.Body, s.maxUploadBytes()+1))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}
	if written > s.maxUploadBytes() {
		if delErr := s.Store.Delete(ctx, storedName); delErr != nil {
			telemetry.Error("orphan cleanup failed after oversized upload", map[string]any{
				"stored_filename": storedName,
				"error":           delErr.Error(),
			})
		}
		return Document{}, validationErrorf("File size exceeds 20MB limit")
	}

	now := time.Now().UTC()
	doc := Document{
		ID:               id,
		OwnerID:          in.OwnerID,
		ProjectID:        in.ProjectID,
		SOWID:            in.SOWID,
		OriginalFilename: safeName,
		StoredFilename:   storedName,
		MimeType:         in.MimeType,
		SizeBytes:        written,
		StoragePath:      storedName,
		Status:           StatusPending,
		DocumentType:     docType,
		Tags:             []string{},
		Notes:            in.Notes,
		UploadedAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		if delErr := s.Store.Delete(ctx, storedName); delErr != nil {
			telemetry.Error("orphan cleanup failed after registry insert failure", map[string]any{
				"document_id":     id,
				"stored_filename": storedName,
				"error":           delErr.Error(),
			})
		}
		return Document{}, fmt.Errorf("register upload: %w", err)
	}

	metrics.IncUpload()
	return doc, nil
}

// Get returns a single document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns a page of documents plus the unpaged total.
func (s *Service) List(ctx context.Context, p ListParams) ([]Document, int, error) {
	return s.Repo.List(ctx, p)
}

// Search runs the bounded registry lookup.
func (s *Service) Search(ctx context.Context, p SearchParams) ([]Document, error) {
	return s.Repo.Search(ctx, p)
}

// Patch updates the administrative fields on a document.
func (s *Service) Patch(ctx context.Context, id string, fields UpdateFields) (Document, error) {
	if fields.Empty() {
		return Document{}, ErrNoFields
	}
	if fields.DocumentType != nil && !ValidDocumentType(*fields.DocumentType) {
		return Document{}, validationErrorf("unknown document type %q", *fields.DocumentType)
	}
	return s.Repo.Update(ctx, id, fields)
}

// Delete removes the registry row first, then the stored bytes. A failed
// object delete is logged but does not undo the registry removal.
func (s *Service) Delete(ctx context.Context, id string) (Document, error) {
	doc, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.StoredFilename != "" {
		if err := s.Store.Delete(ctx, doc.StoredFilename); err != nil {
			telemetry.Error("stored object delete failed", map[string]any{
				"document_id":     doc.ID,
				"stored_filename": doc.StoredFilename,
				"error":           err.Error(),
			})
		}
	}
	return doc, nil
}

// Classify runs the classifier over a document and records the outcome. On
// failure the document is marked failed and the classification error is
// returned unchanged.
func (s *Service) Classify(ctx context.Context, id string) (Document, classify.Result, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, classify.Result{}, err
	}
	if err := s.Repo.UpdateStatus(ctx, id, StatusClassifying); err != nil {
		return Document{}, classify.Result{}, err
	}

	started := time.Now()
	res, err := s.Classifier.Classify(ctx, classify.Input{
		Filename: doc.OriginalFilename,
		MimeType: doc.MimeType,
		Text:     doc.ExtractedText,
	})
	metrics.ObserveStageDuration("classification", time.Since(started).Seconds())
	if err != nil {
		s.markFailed(ctx, id, "classification", err)
		metrics.IncClassification("error")
		return Document{}, classify.Result{}, &ProcessingError{Stage: "classification", Err: err}
	}

	updated, err := s.Repo.SetClassification(ctx, id, res)
	if err != nil {
		s.markFailed(ctx, id, "classification", err)
		metrics.IncClassification("error")
		return Document{}, classify.Result{}, &ProcessingError{Stage: "classification", Err: err}
	}
	metrics.IncClassification("ok")
	return updated, res, nil
}

// Analyze extracts text and derived metadata for a document. All analysis
// fields are written in a single registry update; a failure at any point
// leaves the previous analysis fields untouched and the status failed.
func (s *Service) Analyze(ctx context.Context, id string) (Document, analyze.Result, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, analyze.Result{}, err
	}
	if err := s.Repo.UpdateStatus(ctx, id, StatusAnalyzing); err != nil {
		return Document{}, analyze.Result{}, err
	}

	started := time.Now()
	res, err := s.runAnalysis(ctx, doc)
	metrics.ObserveStageDuration("analysis", time.Since(started).Seconds())
	if err != nil {
		s.markFailed(ctx, id, "analysis", err)
		metrics.IncAnalysis("error")
		return Document{}, analyze.Result{}, &ProcessingError{Stage: "analysis", Err: err}
	}

	updated, err := s.Repo.SetAnalysis(ctx, id, res.Summary, res.ExtractedText, res.AnalyzedAt)
	if err != nil {
		s.markFailed(ctx, id, "analysis", err)
		metrics.IncAnalysis("error")
		return Document{}, analyze.Result{}, &ProcessingError{Stage: "analysis", Err: err}
	}
	metrics.IncAnalysis("ok")
	return updated, res, nil
}

func (s *Service) runAnalysis(ctx context.Context, doc Document) (analyze.Result, error) {
	body, err := s.Store.Open(ctx, doc.StoredFilename)
	if err != nil {
		return analyze.Result{}, fmt.Errorf("open stored object: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return analyze.Result{}, fmt.Errorf("read stored object: %w", err)
	}

	return s.Analyzer.Analyze(ctx, analyze.Input{
		Data:         data,
		MimeType:     doc.MimeType,
		Filename:     doc.OriginalFilename,
		DocumentType: doc.DocumentType,
	})
}

// Stream opens the stored bytes for an authorized requester. Ownership is
// checked before any storage access, and denials are audit logged. The file
// is opened first and a missing object reported from the open error, so there
// is no stat/open window.
func (s *Service) Stream(ctx context.Context, id string, req Requester) (StreamResult, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return StreamResult{}, err
	}

	if !req.Admin && doc.OwnerID != req.ID {
		telemetry.Warn("document.stream.denied", map[string]any{
			"document_id":  doc.ID,
			"owner_id":     doc.OwnerID,
			"requester_id": req.ID,
		})
		metrics.IncStream("denied")
		return StreamResult{}, ErrForbidden
	}

	if doc.StoredFilename == "" || doc.StoragePath == "" {
		metrics.IncStream("missing")
		return StreamResult{}, ErrNotFound
	}

	body, err := s.Store.Open(ctx, doc.StoredFilename)
	if err != nil {
		if err == object.ErrNotFound {
			telemetry.Error("document.stream.file_missing", map[string]any{
				"document_id":     doc.ID,
				"stored_filename": doc.StoredFilename,
			})
			metrics.IncStream("missing")
			return StreamResult{}, ErrFileMissing
		}
		return StreamResult{}, fmt.Errorf("open stored object: %w", err)
	}

	telemetry.Info("document.stream.started", map[string]any{
		"document_id":  doc.ID,
		"requester_id": req.ID,
		"size_bytes":   doc.SizeBytes,
	})
	metrics.IncStream("ok")

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return StreamResult{
		Body:        body,
		ContentType: contentType,
		Filename:    doc.OriginalFilename,
		SizeBytes:   doc.SizeBytes,
	}, nil
}

// markFailed records the compensating failed status. The compensation never
// masks the original error; its own failure is only logged.
func (s *Service) markFailed(ctx context.Context, id, stage string, cause error) {
	if err := s.Repo.UpdateStatus(ctx, id, StatusFailed); err != nil {
		telemetry.Error("failed status write lost", map[string]any{
			"document_id": id,
			"stage":       stage,
			"cause":       cause.Error(),
			"error":       err.Error(),
		})
	}
}

func (s *Service) maxUploadBytes() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return 20 << 20
}
