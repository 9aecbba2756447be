package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration is a non-negative time.Duration read from YAML or the
// environment. A bare number is taken as seconds, so both
// EMBEDDINGS_TIMEOUT=45s and EMBEDDINGS_TIMEOUT=45 work.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	var parsed time.Duration
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return fmt.Errorf("invalid duration %q", s)
		}
		parsed = time.Duration(secs * float64(time.Second))
	} else if parsed, err = time.ParseDuration(s); err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Secret holds the embedding endpoint API key. Every printing and
// marshaling path yields a mask; only Value returns the key itself.
type Secret string

const secretMask = "[REDACTED]"

// Value returns the raw key for the embedding client.
func (s Secret) Value() string { return string(s) }

// IsSet reports whether a key was configured.
func (s Secret) IsSet() bool { return s != "" }

func (s Secret) String() string {
	if !s.IsSet() {
		return ""
	}
	return secretMask
}

func (s Secret) GoString() string { return "config.Secret(" + secretMask + ")" }

func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// UnmarshalText trims surrounding whitespace, which keys pasted into env
// files or mounted from secret volumes often carry.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(strings.TrimSpace(string(text)))
	return nil
}
