package documents

import (
	"time"

	"procurement-backend/internal/classify"
)

// Status is the pipeline state of a document. In-flight states
// (classifying/analyzing) are written before an engine runs so status is
// observable mid-operation; a failed attempt never leaves one behind.
type Status string

const (
	StatusPending     Status = "pending"
	StatusClassifying Status = "classifying"
	StatusClassified  Status = "classified"
	StatusAnalyzing   Status = "analyzing"
	StatusReady       Status = "ready"
	StatusFailed      Status = "failed"
)

// ValidStatus reports whether s is a known pipeline status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusClassifying, StatusClassified, StatusAnalyzing, StatusReady, StatusFailed:
		return true
	}
	return false
}

// Document types recognized by the classifier.
const (
	TypeContract = "contract"
	TypeSOW      = "sow"
	TypeReceipt  = "receipt"
	TypeTimecard = "timecard"
	TypeManual   = "manual"
	TypeDiagram  = "diagram"
	TypeOther    = "other"
)

// ValidDocumentType reports whether t is a known document type.
func ValidDocumentType(t string) bool {
	switch t {
	case TypeContract, TypeSOW, TypeReceipt, TypeTimecard, TypeManual, TypeDiagram, TypeOther:
		return true
	}
	return false
}

// Document is the registry row for one uploaded file.
type Document struct {
	ID               string
	OwnerID          string
	ProjectID        string
	SOWID            string
	OriginalFilename string
	StoredFilename   string
	MimeType         string
	SizeBytes        int64
	StoragePath      string
	Status           Status
	DocumentType     string
	Classification   *classify.Result
	AnalysisSummary  string
	ExtractedText    string
	Tags             []string
	Notes            string
	UploadedAt       time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AnalysisAt       *time.Time
}
