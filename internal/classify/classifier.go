// Package classify infers a document's type from its filename and, when
// available, its extracted text. The Classifier interface is the seam for a
// model-backed implementation; Heuristic is the shipping keyword matcher.
package classify

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Input carries the signals available at classification time. Text is
// optional; it is only populated once analysis has extracted content.
type Input struct {
	Filename string
	MimeType string
	Text     string
}

// Alternative is a lower-confidence candidate type.
type Alternative struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Result is the classification outcome persisted on the document.
type Result struct {
	PredictedType string        `json:"predicted_type"`
	Confidence    float64       `json:"confidence"`
	Alternatives  []Alternative `json:"alternatives"`
	Keywords      []string      `json:"keywords_detected"`
	ClassifiedAt  time.Time     `json:"classified_at"`
}

// Classifier infers a document type with a confidence in [0,1].
type Classifier interface {
	Classify(ctx context.Context, in Input) (Result, error)
}

// typeKeywords maps each document type to its signal tokens, matched
// case-insensitively against filename and text.
var typeKeywords = []struct {
	docType  string
	keywords []string
}{
	{"contract", []string{"contract", "agreement"}},
	{"sow", []string{"sow", "statement", "scope"}},
	{"receipt", []string{"receipt", "expense"}},
	{"timecard", []string{"timecard", "timesheet"}},
	{"manual", []string{"manual", "guide", "handbook"}},
	{"diagram", []string{"diagram", "flowchart", "architecture"}},
}

const (
	baseConfidence     = 0.62
	perKeywordBoost    = 0.11
	maxConfidence      = 0.95
	fallbackConfidence = 0.30
)

// Heuristic is the keyword-rule reference classifier.
type Heuristic struct{}

// NewHeuristic constructs the keyword classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Classify scores each type by matched keywords. Filename matches weigh
// double: a name like Vendor_Contract_2024.pdf is a stronger signal than a
// token buried in body text.
func (h *Heuristic) Classify(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	name := strings.ToLower(in.Filename)
	text := strings.ToLower(in.Text)

	type candidate struct {
		docType string
		score   int
		matched []string
	}

	var candidates []candidate
	for _, tk := range typeKeywords {
		c := candidate{docType: tk.docType}
		for _, kw := range tk.keywords {
			if strings.Contains(name, kw) {
				c.score += 2
				c.matched = append(c.matched, kw)
			} else if text != "" && strings.Contains(text, kw) {
				c.score++
				c.matched = append(c.matched, kw)
			}
		}
		if c.score > 0 {
			candidates = append(candidates, c)
		}
	}

	now := time.Now().UTC()
	if len(candidates) == 0 {
		return Result{
			PredictedType: "other",
			Confidence:    fallbackConfidence,
			Alternatives:  []Alternative{},
			Keywords:      []string{},
			ClassifiedAt:  now,
		}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	best := candidates[0]
	confidence := confidenceFor(best.score)

	alternatives := make([]Alternative, 0, len(candidates)-1)
	for _, c := range candidates[1:] {
		alt := confidenceFor(c.score)
		if alt >= confidence {
			alt = confidence - 0.05
		}
		if alt < 0 {
			alt = 0
		}
		alternatives = append(alternatives, Alternative{Type: c.docType, Confidence: alt})
	}

	return Result{
		PredictedType: best.docType,
		Confidence:    confidence,
		Alternatives:  alternatives,
		Keywords:      best.matched,
		ClassifiedAt:  now,
	}, nil
}

func confidenceFor(score int) float64 {
	c := baseConfidence + float64(score-1)*perKeywordBoost
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

var _ Classifier = (*Heuristic)(nil)
