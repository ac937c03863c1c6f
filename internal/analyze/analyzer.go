// Package analyze extracts text, entities and a summary from stored
// document bytes. The Analyzer interface is the seam for a model-backed
// engine; Engine is the extraction-backed implementation.
package analyze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"procurement-backend/internal/extract"
)

// Input is the payload handed to the analysis engine. The full bytes are
// available because uploads are capped well below memory limits.
type Input struct {
	Data         []byte
	MimeType     string
	Filename     string
	DocumentType string
}

// Entities are the structured signals detected in the extracted text.
type Entities struct {
	Dates   []string `json:"dates"`
	Amounts []string `json:"amounts"`
	Parties []string `json:"parties"`
}

// Result is the analysis outcome. ExtractedText and Summary are persisted on
// the document; the rest is returned to the caller.
type Result struct {
	PageCount     int       `json:"page_count"`
	WordCount     int       `json:"word_count"`
	KeySections   []string  `json:"key_sections"`
	Entities      Entities  `json:"entities_detected"`
	Summary       string    `json:"summary"`
	ExtractedText string    `json:"-"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
}

// Analyzer produces an analysis for a document payload.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (Result, error)
}

// Engine analyzes documents by real text extraction plus lexical heuristics.
type Engine struct{}

// NewEngine constructs the extraction-backed analyzer.
func NewEngine() *Engine {
	return &Engine{}
}

// Analyze extracts the document text and derives counts, sections, entities
// and a summary. Any extraction failure fails the whole analysis; no partial
// result is returned.
func (e *Engine) Analyze(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(in.Data) == 0 {
		return Result{}, fmt.Errorf("empty document payload")
	}

	doc, err := extract.Text(in.Data, in.MimeType, in.Filename)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", in.Filename, err)
	}

	text := doc.Text
	words := strings.Fields(text)

	res := Result{
		PageCount:     doc.PageCount,
		WordCount:     len(words),
		KeySections:   detectSections(text),
		Entities:      detectEntities(text),
		ExtractedText: text,
		AnalyzedAt:    time.Now().UTC(),
	}
	res.Summary = summarize(in.Filename, in.DocumentType, res)
	return res, nil
}

func summarize(filename, documentType string, res Result) string {
	docType := documentType
	if docType == "" {
		docType = "general"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis of %s: %s document, %d words", filename, docType, res.WordCount)
	if res.PageCount > 0 {
		fmt.Fprintf(&b, " across %d pages", res.PageCount)
	}
	b.WriteString(".")
	if len(res.KeySections) > 0 {
		fmt.Fprintf(&b, " Key sections: %s.", strings.Join(res.KeySections, ", "))
	}
	if len(res.Entities.Parties) > 0 {
		fmt.Fprintf(&b, " Parties mentioned: %s.", strings.Join(res.Entities.Parties, ", "))
	}
	if len(res.Entities.Amounts) > 0 {
		fmt.Fprintf(&b, " Amounts referenced: %s.", strings.Join(res.Entities.Amounts, ", "))
	}
	return b.String()
}

var _ Analyzer = (*Engine)(nil)
