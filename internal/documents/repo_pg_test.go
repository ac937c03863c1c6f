package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"procurement-backend/internal/classify"
)

var documentColumnList = []string{
	"id", "uploaded_by", "project_id", "sow_id", "original_filename",
	"stored_filename", "mime_type", "file_size_bytes", "storage_path",
	"status", "document_type", "ai_classification", "analysis_summary",
	"extracted_text", "tags", "notes", "uploaded_at", "created_at",
	"updated_at", "analysis_at",
}

func sampleRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(documentColumnList).AddRow(
		"doc-1", "7", nil, nil, "contract.doc",
		"doc-1.doc", "application/msword", int64(1024), "doc-1.doc",
		"classified", "contract", []byte(`{"predicted_type":"contract","confidence":0.84,"alternatives":[],"keywords_detected":["contract"],"classified_at":"2024-01-02T03:04:05Z"}`), nil,
		nil, []byte(`["vendor"]`), nil, now, now,
		now, nil,
	)
}

func TestPGSearchAppliesFiltersAndPatterns(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPGRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM project_documents WHERE \(\(original_filename ILIKE .+ ORDER BY created_at DESC LIMIT 50`).
		WithArgs("%contract%", "%contract%", "%contract%", "%contract%", "%contract%", "contract").
		WillReturnRows(sampleRow(now))

	docs, err := repo.Search(context.Background(), SearchParams{
		Query:        "contract",
		DocumentType: "contract",
		Status:       "all",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	doc := docs[0]
	if doc.ID != "doc-1" || doc.DocumentType != "contract" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Classification == nil || doc.Classification.PredictedType != "contract" {
		t.Fatalf("classification not decoded: %+v", doc.Classification)
	}
	if len(doc.Tags) != 1 || doc.Tags[0] != "vendor" {
		t.Fatalf("tags not decoded: %v", doc.Tags)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGListCountsAndPages(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPGRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM project_documents WHERE`).
		WithArgs("ready").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT (.+) FROM project_documents WHERE (.+) ORDER BY created_at DESC LIMIT 5 OFFSET 10`).
		WithArgs("ready").
		WillReturnRows(sampleRow(now))

	docs, total, err := repo.List(context.Background(), ListParams{
		Limit:  5,
		Offset: 10,
		Status: "ready",
		Sort:   "drop table", // not whitelisted, falls back to created_at
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 7 {
		t.Fatalf("expected total 7, got %d", total)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one row, got %d", len(docs))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPGRepo(db)

	mock.ExpectQuery(`SELECT (.+) FROM project_documents WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(documentColumnList))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGUpdateStatusMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPGRepo(db)

	mock.ExpectExec(`UPDATE project_documents SET status = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("classifying", sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateStatus(context.Background(), "missing", StatusClassifying); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGSetClassification(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPGRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`UPDATE project_documents\s+SET status = \$1`).
		WithArgs("classified", "contract", sqlmock.AnyArg(), 0.84, sqlmock.AnyArg(), "doc-1").
		WillReturnRows(sampleRow(now))

	doc, err := repo.SetClassification(context.Background(), "doc-1", classify.Result{
		PredictedType: "contract",
		Confidence:    0.84,
	})
	if err != nil {
		t.Fatalf("set classification: %v", err)
	}
	if doc.Status != StatusClassified {
		t.Fatalf("expected classified, got %q", doc.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
