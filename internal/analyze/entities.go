package analyze

import (
	"regexp"
	"strings"
)

const (
	maxEntitiesPerKind = 10
	maxKeySections     = 8
)

var (
	// ISO dates, US dates, and "January 2, 2006" style.
	dateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})\b`)

	// Dollar amounts with optional thousands separators and cents.
	amountRe = regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?\b`)

	// Company-style names: capitalized words ending in a corporate suffix.
	partyRe = regexp.MustCompile(`\b(?:[A-Z][A-Za-z&]+\s)+(?:Inc|LLC|Ltd|Corp|Corporation|Company|Co)\.?\b`)

	// Common heading lines in business documents.
	sectionRe = regexp.MustCompile(`(?im)^\s*(?:\d+[.)]\s+)?(introduction|scope(?: of work)?|deliverables|milestones|terms(?: and conditions)?|payment(?: terms| schedule)?|responsibilities|signatures|appendix|background|objectives)\s*:?\s*$`)
)

func detectEntities(text string) Entities {
	return Entities{
		Dates:   dedupe(dateRe.FindAllString(text, -1), maxEntitiesPerKind),
		Amounts: dedupe(amountRe.FindAllString(text, -1), maxEntitiesPerKind),
		Parties: dedupe(partyRe.FindAllString(text, -1), maxEntitiesPerKind),
	}
}

func detectSections(text string) []string {
	matches := sectionRe.FindAllStringSubmatch(text, -1)
	sections := make([]string, 0, len(matches))
	for _, m := range matches {
		sections = append(sections, title(m[1]))
	}
	return dedupe(sections, maxKeySections)
}

func dedupe(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

func title(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w == "of" || w == "and" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
