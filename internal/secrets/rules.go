package secrets

import "regexp"

// Rule detects one kind of secret.
type Rule struct {
	ID       string
	Pattern  *regexp.Regexp
	Keywords []string
}

// DefaultRules returns the built-in detection rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "aws-access-key-id",
			Pattern:  regexp.MustCompile(`(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`),
			Keywords: []string{"aws", "akia", "access", "key"},
		},
		{
			ID:       "generic-api-key",
			Pattern:  regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,64}['"]?`),
			Keywords: []string{"api"},
		},
		{
			ID:       "generic-secret",
			Pattern:  regexp.MustCompile(`(?i)(?:secret|password|passwd|pwd)\s*[:=]\s*['"]?[^\s'"]{8,}['"]?`),
			Keywords: []string{"secret", "password", "passwd", "pwd"},
		},
		{
			ID:      "private-key",
			Pattern: regexp.MustCompile(`-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?:[- ]BLOCK)?-----`),
		},
		{
			ID:      "github-token",
			Pattern: regexp.MustCompile(`(?:gh[pousr]_[A-Za-z0-9]{36}|github_pat_[A-Za-z0-9_]{22,})`),
		},
		{
			ID:      "slack-token",
			Pattern: regexp.MustCompile(`xox[baprs]-[A-Za-z0-9\-]{10,}`),
		},
		{
			ID:      "stripe-key",
			Pattern: regexp.MustCompile(`(?:sk|pk)_(?:live|test)_[A-Za-z0-9]{24,}`),
		},
		{
			ID:      "google-api-key",
			Pattern: regexp.MustCompile(`AIza[A-Za-z0-9_\-]{35}`),
		},
		{
			ID:      "jwt",
			Pattern: regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`),
		},
		{
			ID:       "database-url",
			Pattern:  regexp.MustCompile(`(?i)(?:postgres|postgresql|mysql|mongodb|redis|amqp)://[^:\s]+:[^@\s]+@\S+`),
			Keywords: []string{"://"},
		},
		{
			ID:       "bearer-token",
			Pattern:  regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-\.]{20,}`),
			Keywords: []string{"bearer"},
		},
	}
}
