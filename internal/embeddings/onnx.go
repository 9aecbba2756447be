package embeddings

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// DefaultFastEmbedModel is used when no model is configured.
	DefaultFastEmbedModel = "BAAI/bge-small-en-v1.5"

	// DefaultModelDir is where models are read from when none is configured.
	DefaultModelDir = "models"

	onnxPathEnv = "ONNX_PATH"
)

// libraryNames maps GOOS to the shared library filename.
var libraryNames = map[string]string{
	"linux":  "libonnxruntime.so",
	"darwin": "libonnxruntime.dylib",
}

func libraryName(goos string) string {
	if name, ok := libraryNames[goos]; ok {
		return name
	}
	return "libonnxruntime.so"
}

// ONNXLibraryPath returns the ONNX runtime library FastEmbed will load.
// Checks in order:
// 1. ONNX_PATH environment variable
// 2. lib/ inside the model directory, shipped alongside the model
// Returns empty string if not found.
func ONNXLibraryPath(modelDir string) string {
	if envPath := os.Getenv(onnxPathEnv); envPath != "" {
		return envPath
	}
	if modelDir == "" {
		modelDir = DefaultModelDir
	}
	bundled := filepath.Join(modelDir, "lib", libraryName(runtime.GOOS))
	if _, err := os.Stat(bundled); err == nil {
		return bundled
	}
	return ""
}

// useONNXLibrary points FastEmbed at a runtime bundled in the model
// directory unless ONNX_PATH already names one.
func useONNXLibrary(modelDir string) {
	if os.Getenv(onnxPathEnv) != "" {
		return
	}
	if path := ONNXLibraryPath(modelDir); path != "" {
		_ = os.Setenv(onnxPathEnv, path)
	}
}
