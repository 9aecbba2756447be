package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, Level(zapcore.InfoLevel), cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, OutputStderr, cfg.Output)
	assert.True(t, cfg.Caller.Enabled)
	assert.Equal(t, zapcore.ErrorLevel, cfg.Stacktrace.Level)
	assert.Equal(t, "personarank", cfg.Fields["service"])
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "console format", mutate: func(c *Config) { c.Format = "console" }},
		{name: "stdout output", mutate: func(c *Config) { c.Output = OutputStdout }},
		{name: "unknown format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: "format must be"},
		{name: "unknown output", mutate: func(c *Config) { c.Output = "file" }, wantErr: "output must be"},
		{name: "negative caller skip", mutate: func(c *Config) { c.Caller.Skip = -1 }, wantErr: "caller skip"},
		{name: "empty field key", mutate: func(c *Config) { c.Fields[""] = "x" }, wantErr: "field key"},
		{name: "empty field value", mutate: func(c *Config) { c.Fields["env"] = "" }, wantErr: "empty value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
