package documents

import (
	"time"

	"procurement-backend/internal/classify"
)

// DocumentResponse is the wire shape for a registry document.
type DocumentResponse struct {
	ID               string           `json:"id"`
	UploadedBy       string           `json:"uploadedBy"`
	ProjectID        string           `json:"projectId,omitempty"`
	SOWID            string           `json:"sowId,omitempty"`
	OriginalFilename string           `json:"originalFilename"`
	MimeType         string           `json:"mimeType"`
	FileSizeBytes    int64            `json:"fileSizeBytes"`
	Status           string           `json:"status"`
	DocumentType     string           `json:"documentType"`
	Classification   *classify.Result `json:"classification,omitempty"`
	AnalysisSummary  string           `json:"analysisSummary,omitempty"`
	ExtractedText    string           `json:"extractedText,omitempty"`
	Tags             []string         `json:"tags"`
	Notes            string           `json:"notes,omitempty"`
	UploadedAt       time.Time        `json:"uploadedAt"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	AnalysisAt       *time.Time       `json:"analysisAt,omitempty"`
}

func toResponse(doc Document) DocumentResponse {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	return DocumentResponse{
		ID:               doc.ID,
		UploadedBy:       doc.OwnerID,
		ProjectID:        doc.ProjectID,
		SOWID:            doc.SOWID,
		OriginalFilename: doc.OriginalFilename,
		MimeType:         doc.MimeType,
		FileSizeBytes:    doc.SizeBytes,
		Status:           string(doc.Status),
		DocumentType:     doc.DocumentType,
		Classification:   doc.Classification,
		AnalysisSummary:  doc.AnalysisSummary,
		ExtractedText:    doc.ExtractedText,
		Tags:             tags,
		Notes:            doc.Notes,
		UploadedAt:       doc.UploadedAt,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
		AnalysisAt:       doc.AnalysisAt,
	}
}

func toResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	return out
}
