package secrets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// DefaultReplacement stands in for every redacted span.
const DefaultReplacement = "[REDACTED]"

// Redactor replaces secrets in text. Detection combines the gitleaks
// default rule set with the Rules given to New.
type Redactor struct {
	detector    *detect.Detector
	rules       []Rule
	replacement string
}

// New creates a Redactor. No rules means DefaultRules; an empty
// replacement means DefaultReplacement.
func New(rules []Rule, replacement string) (*Redactor, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks rules: %w", err)
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if replacement == "" {
		replacement = DefaultReplacement
	}
	return &Redactor{detector: detector, rules: rules, replacement: replacement}, nil
}

type span struct {
	start, end int
}

// Redact returns text with every detected secret replaced, and the IDs of
// the rules that matched: local rules in rule order, then gitleaks rules.
// Overlapping matches collapse into one replacement.
func (r *Redactor) Redact(text string) (string, []string) {
	if text == "" {
		return text, nil
	}

	spans, matched := r.matchRules(text)
	gSpans, gMatched := r.matchGitleaks(text)
	spans = append(spans, gSpans...)
	for _, id := range gMatched {
		if !contains(matched, id) {
			matched = append(matched, id)
		}
	}
	if len(spans) == 0 {
		return text, nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	var b strings.Builder
	pos := 0
	for _, s := range merge(spans) {
		b.WriteString(text[pos:s.start])
		b.WriteString(r.replacement)
		pos = s.end
	}
	b.WriteString(text[pos:])
	return b.String(), matched
}

func (r *Redactor) matchRules(text string) ([]span, []string) {
	lower := strings.ToLower(text)

	var (
		spans   []span
		matched []string
	)
	for _, rule := range r.rules {
		if !hasKeyword(lower, rule.Keywords) {
			continue
		}
		locs := rule.Pattern.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		matched = append(matched, rule.ID)
		for _, loc := range locs {
			spans = append(spans, span{start: loc[0], end: loc[1]})
		}
	}
	return spans, matched
}

// matchGitleaks locates each finding by its secret value. Every
// occurrence of the value is masked, not only the reported one.
func (r *Redactor) matchGitleaks(text string) ([]span, []string) {
	var (
		spans   []span
		matched []string
	)
	for _, f := range r.detector.DetectString(text) {
		secret := f.Secret
		if secret == "" {
			secret = f.Match
		}
		found := occurrences(text, secret)
		if len(found) == 0 {
			continue
		}
		spans = append(spans, found...)
		if !contains(matched, f.RuleID) {
			matched = append(matched, f.RuleID)
		}
	}
	return spans, matched
}

func occurrences(text, needle string) []span {
	if needle == "" {
		return nil
	}
	var out []span
	for from := 0; ; {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			return out
		}
		start := from + i
		out = append(out, span{start: start, end: start + len(needle)})
		from = start + len(needle)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func hasKeyword(lower string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// merge joins overlapping or touching spans. spans must be sorted by start.
func merge(spans []span) []span {
	out := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.start <= last.end {
			last.end = max(last.end, s.end)
			continue
		}
		out = append(out, s)
	}
	return out
}
