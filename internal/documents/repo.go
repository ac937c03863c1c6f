package documents

import (
	"context"
	"time"

	"procurement-backend/internal/classify"
)

// ListParams filters and pages the list endpoint. Sort must be a whitelisted
// column; callers get created_at DESC otherwise.
type ListParams struct {
	Limit        int
	Offset       int
	Sort         string
	Order        string
	Status       string
	DocumentType string
	ProjectID    string
	SOWID        string
}

// SearchParams is a bounded filtered lookup. Query matches case-insensitively
// against filename, type, summary, extracted text and notes (OR). Type and
// Status are exact filters; the sentinel "all" disables them.
type SearchParams struct {
	Query        string
	DocumentType string
	Status       string
	Limit        int
}

// UpdateFields is the administrative patch surface: mutable regardless of
// pipeline status. Nil pointers leave the column untouched.
type UpdateFields struct {
	DocumentType *string
	Tags         *[]string
	Notes        *string
}

// Empty reports whether the patch carries nothing to update.
func (f UpdateFields) Empty() bool {
	return f.DocumentType == nil && f.Tags == nil && f.Notes == nil
}

// Repo defines persistence for the document registry.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	List(ctx context.Context, p ListParams) ([]Document, int, error)
	Search(ctx context.Context, p SearchParams) ([]Document, error)
	Update(ctx context.Context, id string, fields UpdateFields) (Document, error)
	Delete(ctx context.Context, id string) (Document, error)
	// UpdateStatus writes an in-flight or compensating status.
	UpdateStatus(ctx context.Context, id string, status Status) error
	// SetClassification persists a successful classify: result, recomputed
	// document type, status=classified.
	SetClassification(ctx context.Context, id string, res classify.Result) (Document, error)
	// SetAnalysis persists a successful analyze: summary, extracted text,
	// analysis timestamp, status=ready.
	SetAnalysis(ctx context.Context, id string, summary, extractedText string, analyzedAt time.Time) (Document, error)
}
