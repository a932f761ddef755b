// Package manifest persists the identifiers generated by a seeding run so
// later runs and tools can reuse them.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Manifest struct {
	RunID         string   `json:"runId,omitempty" yaml:"runId,omitempty"`
	Seed          int64    `json:"seed" yaml:"seed"`
	PublisherIDs  []string `json:"publisherIds" yaml:"publisherIds"`
	AuthorIDs     []string `json:"authorIds" yaml:"authorIds"`
	BookIDs       []string `json:"bookIds" yaml:"bookIds"`
	UserIDs       []string `json:"userIds" yaml:"userIds"`
	StudentIDs    []string `json:"studentIds" yaml:"studentIds"`
	StudentRoleID string   `json:"studentRoleId" yaml:"studentRoleId"`
	DegreeIDs     []string `json:"degreeIds" yaml:"degreeIds"`
	LoanIDs       []string `json:"loanIds,omitempty" yaml:"loanIds,omitempty"`
	GeneratedAt   string   `json:"generatedAt" yaml:"generatedAt"`
}

// Stamp sets GeneratedAt from t.
func (m *Manifest) Stamp(t time.Time) {
	m.GeneratedAt = t.UTC().Format(TimestampLayout)
}

// Time parses GeneratedAt.
func (m *Manifest) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, m.GeneratedAt)
}

// Write serializes m to path, replacing whatever was there. The file is
// written next to path first and renamed over it, so readers never see a
// partial manifest.
func Write(path, format string, m *Manifest) error {
	if format == "" {
		format = FormatFromPath(path)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(m, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(m)
	default:
		return fmt.Errorf("unsupported manifest format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create manifest file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}

// Read loads the manifest at path, whichever format it was written in.
func Read(path string) (*Manifest, error) {
	m, _, err := ReadFormat(path)
	return m, err
}

// ReadFormat loads the manifest at path and reports the format it was
// written in, so a rewrite can keep it. The format is taken from the content
// since a manifest may have been written with an explicit format that
// contradicts its extension.
func ReadFormat(path string) (*Manifest, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	format := DetectFormat(data)
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, format, nil
}

// DetectFormat reports FormatJSON when data holds a JSON object and
// FormatYAML otherwise.
func DetectFormat(data []byte) string {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// FormatFromPath picks the manifest format from a file extension, defaulting
// to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
