package analyze

import (
	"context"
	"strings"
	"testing"
)

const sowText = `Statement of Work

Scope of Work:
Acme Consulting LLC will deliver the migration for Globex Corp.

Deliverables:
Phase one completes by 2024-03-15 for a fixed fee of $12,500.00.

Payment Terms:
Net 30 from invoice date, 1/15/2024 kickoff.
`

func TestEngineAnalyze(t *testing.T) {
	e := NewEngine()

	res, err := e.Analyze(context.Background(), Input{
		Data:         []byte(sowText),
		MimeType:     "application/msword",
		Filename:     "sow_phase1.doc",
		DocumentType: "sow",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if res.WordCount == 0 {
		t.Fatalf("expected nonzero word count")
	}
	if res.ExtractedText == "" {
		t.Fatalf("expected extracted text")
	}
	if res.AnalyzedAt.IsZero() {
		t.Fatalf("expected analyzed_at to be set")
	}

	wantSections := map[string]bool{"Scope of Work": false, "Deliverables": false, "Payment Terms": false}
	for _, s := range res.KeySections {
		if _, ok := wantSections[s]; ok {
			wantSections[s] = true
		}
	}
	for name, found := range wantSections {
		if !found {
			t.Errorf("missing key section %q in %v", name, res.KeySections)
		}
	}

	if !contains(res.Entities.Dates, "2024-03-15") {
		t.Errorf("missing ISO date in %v", res.Entities.Dates)
	}
	if !contains(res.Entities.Dates, "1/15/2024") {
		t.Errorf("missing US date in %v", res.Entities.Dates)
	}
	if !contains(res.Entities.Amounts, "$12,500.00") {
		t.Errorf("missing amount in %v", res.Entities.Amounts)
	}
	if !contains(res.Entities.Parties, "Acme Consulting LLC") {
		t.Errorf("missing party in %v", res.Entities.Parties)
	}

	if !strings.Contains(res.Summary, "sow_phase1.doc") {
		t.Errorf("summary should name the file: %q", res.Summary)
	}
	if !strings.Contains(res.Summary, "sow document") {
		t.Errorf("summary should name the type: %q", res.Summary)
	}
}

func TestEngineAnalyzeEmptyPayload(t *testing.T) {
	e := NewEngine()
	if _, err := e.Analyze(context.Background(), Input{MimeType: "application/pdf", Filename: "x.pdf"}); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestEngineAnalyzeExtractionFailure(t *testing.T) {
	e := NewEngine()
	res, err := e.Analyze(context.Background(), Input{
		Data:     []byte("not really a pdf"),
		MimeType: "application/pdf",
		Filename: "broken.pdf",
	})
	if err == nil {
		t.Fatalf("expected extraction error")
	}
	if res.Summary != "" || res.ExtractedText != "" {
		t.Fatalf("expected zero result on failure, got %+v", res)
	}
}

func TestDetectEntitiesDedupeAndCap(t *testing.T) {
	text := strings.Repeat("Invoice for $100 due 2024-01-01. ", 5)
	ents := detectEntities(text)
	if len(ents.Amounts) != 1 {
		t.Fatalf("expected deduped amounts, got %v", ents.Amounts)
	}
	if len(ents.Dates) != 1 {
		t.Fatalf("expected deduped dates, got %v", ents.Dates)
	}
}

func TestDetectSectionsNumberedHeadings(t *testing.T) {
	text := "1. Introduction\nbody\n2) Milestones\nbody\n"
	sections := detectSections(text)
	if !contains(sections, "Introduction") || !contains(sections, "Milestones") {
		t.Fatalf("unexpected sections: %v", sections)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
