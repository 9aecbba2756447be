// Package secrets redacts credentials that appear in text extracted from
// documents before the text is written to the result file.
//
// Detection is pattern based. Each Rule pairs a regular expression with
// optional keywords; a rule with keywords only runs when one of them occurs
// in the text (case-insensitively), which keeps broad patterns such as the
// generic password rule from firing on unrelated prose.
package secrets
