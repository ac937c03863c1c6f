package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"procurement-backend/internal/classify"
)

const tableDocuments = "project_documents"

const documentColumns = `id, uploaded_by, project_id, sow_id, original_filename, stored_filename, mime_type, file_size_bytes, storage_path, status, document_type, ai_classification, analysis_summary, extracted_text, tags, notes, uploaded_at, created_at, updated_at, analysis_at`

// Sortable columns for the list endpoint; anything else falls back to
// created_at.
var allowedSortColumns = map[string]struct{}{
	"id":                {},
	"created_at":        {},
	"updated_at":        {},
	"uploaded_at":       {},
	"original_filename": {},
	"status":            {},
	"document_type":     {},
	"file_size_bytes":   {},
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
	qb sq.StatementBuilderType
}

// NewPGRepo constructs a PGRepo over the shared pool.
func NewPGRepo(database *sql.DB) *PGRepo {
	return &PGRepo{
		DB: database,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create inserts a new document row.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO project_documents (
    id,
    uploaded_by,
    project_id,
    sow_id,
    original_filename,
    stored_filename,
    mime_type,
    file_size_bytes,
    storage_path,
    status,
    document_type,
    tags,
    notes,
    uploaded_at,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	tagsJSON, err := marshalTags(doc.Tags)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		nullString(doc.ProjectID),
		nullString(doc.SOWID),
		doc.OriginalFilename,
		doc.StoredFilename,
		doc.MimeType,
		doc.SizeBytes,
		doc.StoragePath,
		string(doc.Status),
		doc.DocumentType,
		tagsJSON,
		nullString(doc.Notes),
		doc.UploadedAt,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a document by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM project_documents WHERE id = $1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, id))
}

// List returns a page of documents plus the unpaged total.
func (r *PGRepo) List(ctx context.Context, p ListParams) ([]Document, int, error) {
	conds := sq.And{}
	if p.Status != "" {
		conds = append(conds, sq.Eq{"status": p.Status})
	}
	if p.DocumentType != "" {
		conds = append(conds, sq.Eq{"document_type": p.DocumentType})
	}
	if p.ProjectID != "" {
		conds = append(conds, sq.Eq{"project_id": p.ProjectID})
	}
	if p.SOWID != "" {
		conds = append(conds, sq.Eq{"sow_id": p.SOWID})
	}

	countBuilder := r.qb.Select("COUNT(*)").From(tableDocuments)
	if len(conds) > 0 {
		countBuilder = countBuilder.Where(conds)
	}
	query, args, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	builder := r.qb.Select(documentColumns).
		From(tableDocuments).
		OrderBy(orderClause(p.Sort, p.Order)).
		Limit(uint64(normalizeLimit(p.Limit, 20, 100))).
		Offset(uint64(max(p.Offset, 0)))
	if len(conds) > 0 {
		builder = builder.Where(conds)
	}
	query, args, err = builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	docs, err := r.queryDocuments(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Search runs the bounded filtered lookup, newest first.
func (r *PGRepo) Search(ctx context.Context, p SearchParams) ([]Document, error) {
	conds := sq.And{}
	if q := strings.TrimSpace(p.Query); q != "" {
		pattern := "%" + q + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"original_filename": pattern},
			sq.ILike{"document_type": pattern},
			sq.ILike{"analysis_summary": pattern},
			sq.ILike{"extracted_text": pattern},
			sq.ILike{"notes": pattern},
		})
	}
	if p.DocumentType != "" && p.DocumentType != "all" {
		conds = append(conds, sq.Eq{"document_type": p.DocumentType})
	}
	if p.Status != "" && p.Status != "all" {
		conds = append(conds, sq.Eq{"status": p.Status})
	}

	builder := r.qb.Select(documentColumns).
		From(tableDocuments).
		OrderBy("created_at DESC").
		Limit(uint64(normalizeLimit(p.Limit, 50, 100)))
	if len(conds) > 0 {
		builder = builder.Where(conds)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	return r.queryDocuments(ctx, query, args...)
}

// Update applies the administrative patch fields.
func (r *PGRepo) Update(ctx context.Context, id string, fields UpdateFields) (Document, error) {
	if fields.Empty() {
		return Document{}, ErrNoFields
	}

	builder := r.qb.Update(tableDocuments).Where(sq.Eq{"id": id})
	if fields.DocumentType != nil {
		builder = builder.Set("document_type", *fields.DocumentType)
	}
	if fields.Tags != nil {
		tagsJSON, err := marshalTags(*fields.Tags)
		if err != nil {
			return Document{}, err
		}
		builder = builder.Set("tags", tagsJSON)
	}
	if fields.Notes != nil {
		builder = builder.Set("notes", nullString(*fields.Notes))
	}
	builder = builder.Set("updated_at", time.Now().UTC()).
		Suffix("RETURNING " + documentColumns)

	query, args, err := builder.ToSql()
	if err != nil {
		return Document{}, fmt.Errorf("build update query: %w", err)
	}
	return scanDocument(r.DB.QueryRowContext(ctx, query, args...))
}

// Delete removes the row and returns it.
func (r *PGRepo) Delete(ctx context.Context, id string) (Document, error) {
	query := `DELETE FROM project_documents WHERE id = $1 RETURNING ` + documentColumns
	return scanDocument(r.DB.QueryRowContext(ctx, query, id))
}

// UpdateStatus writes an in-flight or compensating status.
func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	const query = `UPDATE project_documents SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetClassification persists a successful classification.
func (r *PGRepo) SetClassification(ctx context.Context, id string, res classify.Result) (Document, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return Document{}, fmt.Errorf("marshal classification: %w", err)
	}

	query := `
UPDATE project_documents
SET status = $1,
    document_type = $2,
    ai_classification = $3,
    classification_confidence = $4,
    updated_at = $5
WHERE id = $6
RETURNING ` + documentColumns
	return scanDocument(r.DB.QueryRowContext(
		ctx,
		query,
		string(StatusClassified),
		res.PredictedType,
		payload,
		res.Confidence,
		time.Now().UTC(),
		id,
	))
}

// SetAnalysis persists a successful analysis.
func (r *PGRepo) SetAnalysis(ctx context.Context, id string, summary, extractedText string, analyzedAt time.Time) (Document, error) {
	query := `
UPDATE project_documents
SET status = $1,
    analysis_summary = $2,
    extracted_text = $3,
    analysis_at = $4,
    updated_at = $5
WHERE id = $6
RETURNING ` + documentColumns
	return scanDocument(r.DB.QueryRowContext(
		ctx,
		query,
		string(StatusReady),
		summary,
		extractedText,
		analyzedAt,
		time.Now().UTC(),
		id,
	))
}

func (r *PGRepo) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc            Document
		projectID      sql.NullString
		sowID          sql.NullString
		classification []byte
		summary        sql.NullString
		extracted      sql.NullString
		tagsJSON       []byte
		notes          sql.NullString
		analysisAt     sql.NullTime
		status         string
	)
	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&projectID,
		&sowID,
		&doc.OriginalFilename,
		&doc.StoredFilename,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StoragePath,
		&status,
		&doc.DocumentType,
		&classification,
		&summary,
		&extracted,
		&tagsJSON,
		&notes,
		&doc.UploadedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&analysisAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}

	doc.Status = Status(status)
	doc.ProjectID = projectID.String
	doc.SOWID = sowID.String
	doc.AnalysisSummary = summary.String
	doc.ExtractedText = extracted.String
	doc.Notes = notes.String
	if analysisAt.Valid {
		t := analysisAt.Time
		doc.AnalysisAt = &t
	}
	if len(classification) > 0 {
		var res classify.Result
		if err := json.Unmarshal(classification, &res); err != nil {
			return Document{}, fmt.Errorf("unmarshal classification: %w", err)
		}
		doc.Classification = &res
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &doc.Tags); err != nil {
			return Document{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	payload, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	return payload, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func orderClause(sortCol, order string) string {
	if _, ok := allowedSortColumns[sortCol]; !ok {
		sortCol = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(order, "asc") {
		dir = "ASC"
	}
	return sortCol + " " + dir
}

func normalizeLimit(limit, def, cap int) int {
	if limit <= 0 {
		return def
	}
	if limit > cap {
		return cap
	}
	return limit
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var _ Repo = (*PGRepo)(nil)
