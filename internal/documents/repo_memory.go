package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"procurement-backend/internal/classify"
)

// MemoryRepo is an in-process Repo used when no database is configured.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) List(ctx context.Context, p ListParams) ([]Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Document
	for _, doc := range r.docs {
		if p.Status != "" && string(doc.Status) != p.Status {
			continue
		}
		if p.DocumentType != "" && doc.DocumentType != p.DocumentType {
			continue
		}
		if p.ProjectID != "" && doc.ProjectID != p.ProjectID {
			continue
		}
		if p.SOWID != "" && doc.SOWID != p.SOWID {
			continue
		}
		matched = append(matched, doc)
	}
	sortDocuments(matched, p.Sort, p.Order)

	total := len(matched)
	offset := max(p.Offset, 0)
	if offset > total {
		offset = total
	}
	limit := normalizeLimit(p.Limit, 20, 100)
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *MemoryRepo) Search(ctx context.Context, p SearchParams) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(p.Query))
	var matched []Document
	for _, doc := range r.docs {
		if query != "" && !matchesQuery(doc, query) {
			continue
		}
		if p.DocumentType != "" && p.DocumentType != "all" && doc.DocumentType != p.DocumentType {
			continue
		}
		if p.Status != "" && p.Status != "all" && string(doc.Status) != p.Status {
			continue
		}
		matched = append(matched, doc)
	}
	sortDocuments(matched, "created_at", "desc")

	limit := normalizeLimit(p.Limit, 50, 100)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, fields UpdateFields) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if fields.Empty() {
		return Document{}, ErrNoFields
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	if fields.DocumentType != nil {
		doc.DocumentType = *fields.DocumentType
	}
	if fields.Tags != nil {
		doc.Tags = append([]string{}, (*fields.Tags)...)
	}
	if fields.Notes != nil {
		doc.Notes = *fields.Notes
	}
	doc.UpdatedAt = time.Now().UTC()
	r.docs[id] = doc
	return doc, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	delete(r.docs, id)
	return doc, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	r.docs[id] = doc
	return nil
}

func (r *MemoryRepo) SetClassification(ctx context.Context, id string, res classify.Result) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	resCopy := res
	doc.Classification = &resCopy
	doc.DocumentType = res.PredictedType
	doc.Status = StatusClassified
	doc.UpdatedAt = time.Now().UTC()
	r.docs[id] = doc
	return doc, nil
}

func (r *MemoryRepo) SetAnalysis(ctx context.Context, id string, summary, extractedText string, analyzedAt time.Time) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.AnalysisSummary = summary
	doc.ExtractedText = extractedText
	doc.AnalysisAt = &analyzedAt
	doc.Status = StatusReady
	doc.UpdatedAt = time.Now().UTC()
	r.docs[id] = doc
	return doc, nil
}

func matchesQuery(doc Document, query string) bool {
	for _, field := range []string{
		doc.OriginalFilename,
		doc.DocumentType,
		doc.AnalysisSummary,
		doc.ExtractedText,
		doc.Notes,
	} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func sortDocuments(docs []Document, sortCol, order string) {
	asc := strings.EqualFold(order, "asc")
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		var less bool
		switch sortCol {
		case "original_filename":
			less = a.OriginalFilename < b.OriginalFilename
		case "status":
			less = a.Status < b.Status
		case "document_type":
			less = a.DocumentType < b.DocumentType
		case "file_size_bytes":
			less = a.SizeBytes < b.SizeBytes
		case "uploaded_at":
			less = a.UploadedAt.Before(b.UploadedAt)
		case "updated_at":
			less = a.UpdatedAt.Before(b.UpdatedAt)
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})
}

var _ Repo = (*MemoryRepo)(nil)
