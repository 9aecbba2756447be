package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// TimestampLayout is local time with microseconds and no zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// NoSectionsMessage is written when no document yields a section.
const NoSectionsMessage = "No processable sections found in the documents."

// Output is the result document of a run with at least one section.
type Output struct {
	Metadata           Metadata             `json:"Metadata"`
	ExtractedSections  []ExtractedSection   `json:"Extracted Sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"Sub-section Analysis"`
}

// Metadata describes the run inputs.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection is one ranked section.
type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

// SubsectionAnalysis is the refined summary of the section at the same
// position in ExtractedSections.
type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
}

// MessageOutput replaces Output when there is nothing to rank.
type MessageOutput struct {
	Message string `json:"message"`
}

// FormatTimestamp renders t in TimestampLayout, in local time.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

var inputPrefix = regexp.MustCompile(`^input[/\\]`)

// CleanDocumentPath reduces a document path to its file name, whichever
// separator it was written with. An empty path becomes "N/A".
func CleanDocumentPath(p string) string {
	if p == "" {
		return "N/A"
	}
	p = inputPrefix.ReplaceAllString(p, "")
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		// Nothing after the last separator.
		return ""
	}
	return path.Base(p)
}

// WriteJSON writes v to file as 2-space indented JSON, creating the parent
// directory. The file is written to a temporary name first and renamed, so
// a failed run never leaves a truncated result behind.
func WriteJSON(file string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".output-*.json")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting output permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// ReadOutput loads a result document written by a run.
func ReadOutput(file string) (*Output, *MessageOutput, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, nil, fmt.Errorf("reading output: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, fmt.Errorf("parsing output: %w", err)
	}
	if _, ok := fields["message"]; ok {
		var msg MessageOutput
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, nil, fmt.Errorf("parsing output: %w", err)
		}
		return nil, &msg, nil
	}

	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, nil, fmt.Errorf("parsing output: %w", err)
	}
	return &out, nil, nil
}
