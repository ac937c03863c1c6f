package classify

import (
	"context"
	"testing"
)

func TestClassifyFilenameKeyword(t *testing.T) {
	h := NewHeuristic()

	res, err := h.Classify(context.Background(), Input{Filename: "Vendor_Contract_2024.pdf"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.PredictedType != "contract" {
		t.Fatalf("expected contract, got %q", res.PredictedType)
	}
	if res.Confidence <= 0 || res.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", res.Confidence)
	}
	if len(res.Keywords) == 0 {
		t.Fatalf("expected matched keywords")
	}
	if res.ClassifiedAt.IsZero() {
		t.Fatalf("expected classified_at to be set")
	}
}

func TestClassifyTextKeywords(t *testing.T) {
	h := NewHeuristic()

	res, err := h.Classify(context.Background(), Input{
		Filename: "upload.docx",
		Text:     "This statement of work defines the scope of services for phase one.",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.PredictedType != "sow" {
		t.Fatalf("expected sow, got %q", res.PredictedType)
	}
}

func TestClassifyFilenameOutweighsText(t *testing.T) {
	h := NewHeuristic()

	// One filename keyword (weight 2) beats one text keyword (weight 1).
	res, err := h.Classify(context.Background(), Input{
		Filename: "receipt_march.pdf",
		Text:     "signed per the agreement",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.PredictedType != "receipt" {
		t.Fatalf("expected receipt, got %q", res.PredictedType)
	}
	if len(res.Alternatives) == 0 {
		t.Fatalf("expected contract as an alternative")
	}
	for _, alt := range res.Alternatives {
		if alt.Confidence >= res.Confidence {
			t.Fatalf("alternative %q confidence %f >= primary %f", alt.Type, alt.Confidence, res.Confidence)
		}
	}
}

func TestClassifyFallsBackToOther(t *testing.T) {
	h := NewHeuristic()

	res, err := h.Classify(context.Background(), Input{Filename: "random_file.pdf"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.PredictedType != "other" {
		t.Fatalf("expected other, got %q", res.PredictedType)
	}
	if res.Confidence != fallbackConfidence {
		t.Fatalf("expected fallback confidence %f, got %f", fallbackConfidence, res.Confidence)
	}
	if len(res.Keywords) != 0 {
		t.Fatalf("expected no keywords, got %v", res.Keywords)
	}
}

func TestClassifyConfidenceCapped(t *testing.T) {
	h := NewHeuristic()

	res, err := h.Classify(context.Background(), Input{
		Filename: "sow_statement_scope.docx",
		Text:     "statement of work scope sow",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Confidence > maxConfidence {
		t.Fatalf("confidence %f exceeds cap %f", res.Confidence, maxConfidence)
	}
}
