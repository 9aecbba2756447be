package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// sections are the top-level keys environment variables may set.
var sections = map[string]bool{
	"input": true, "output": true, "segment": true, "ranking": true, "refine": true,
	"embeddings": true, "pdf": true, "logging": true, "telemetry": true,
}

// Load builds the configuration from defaults, an optional YAML file, then
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (INPUT_DIR, RANKING_ALPHA, EMBEDDINGS_BASE_URL, ...)
//  2. YAML config file at configPath, when non-empty
//  3. Default()
//
// Environment variables map onto keys by splitting on the first underscore,
// so the section must be a single word and the field keeps its underscores:
//
//	INPUT_DIR            -> input.dir
//	RANKING_MAX_ITERATIONS -> ranking.max_iterations
//	EMBEDDINGS_API_KEY   -> embeddings.api_key
//
// Variables whose first word is not a known section are ignored.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name. It returns "" for
// variables outside the known sections, which koanf then skips.
func envKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 || !sections[parts[0]] {
		return ""
	}
	return parts[0] + "." + parts[1]
}

// readConfigFile reads a config file no larger than 1MB. The size is
// checked on the opened descriptor so the file cannot change in between.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
