package refine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule is one text rewrite in the normalisation pipeline.
type Rule struct {
	Name   string
	Intent string

	pattern     *regexp.Regexp
	replacement string
}

// Apply rewrites text with the rule.
func (r Rule) Apply(text string) string {
	return r.pattern.ReplaceAllString(text, r.replacement)
}

func rule(name, intent, pattern, replacement string) Rule {
	return Rule{
		Name:        name,
		Intent:      intent,
		pattern:     regexp.MustCompile(pattern),
		replacement: replacement,
	}
}

// Denylist holds source-attribution tokens removed from summaries.
var Denylist = []string{
	"wikipedia", "britannica", "kevmrc", "bestofniceblog", "snippetsofparis", "isolatedtraveller",
}

// Rules is the ordered normalisation pipeline.
var Rules = []Rule{
	rule("bold", "unwrap **bold** markers", `\*\*([^*]+)\*\*`, "${1}"),
	rule("underscore-bold", "unwrap __bold__ markers", `__([^_]+)__`, "${1}"),
	rule("italic", "unwrap *italic* markers", `\*([^*]+)\*`, "${1}"),
	rule("link-target", "drop parenthesised link targets", `\(https://[^\)]*\)`, ""),
	rule("url", "drop bare URLs", `https://[^\s]*`, ""),
	rule("link-debris", "turn leftover ]( into a plain parenthesis", `\]\s*\(`, " ("),
	rule("input-prefix", "drop input/ path prefixes", `input[/\\]`, ""),
	rule("backslash", "turn backslash runs into spaces", `\\+`, " "),
	rule("slash", "turn slash runs into spaces", `/+`, " "),
	rule("long-number", "drop numbers of three or more digits", `\b\d{3,}\b`, ""),
	rule("denylist", "drop source attribution tokens", `\b(`+strings.Join(Denylist, "|")+`)\b`, ""),
	rule("newline", "join lines", `\n+`, " "),
	rule("whitespace", "collapse whitespace", `\s+`, " "),
}

const minSentenceLength = 10

var wordChar = regexp.MustCompile(`\w`)

// Clean applies Rules in order, then drops period-delimited sentences of
// ten characters or fewer and those without a word character. If nothing
// survives the filter the rewritten text is returned as is.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	for _, r := range Rules {
		text = r.Apply(text)
	}
	text = strings.TrimSpace(text)

	var kept []string
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minSentenceLength && wordChar.MatchString(s) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return text
	}
	return terminate(strings.Join(kept, ". "))
}

// terminate ends non-empty text with a period.
func terminate(text string) string {
	if text != "" && !strings.HasSuffix(text, ".") {
		return text + "."
	}
	return text
}
