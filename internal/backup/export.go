package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitguard/internal/constants"
)

// Exporter is the part of a storage provider needed to dump its tables
type Exporter interface {
	ExportTables() (map[string][]map[string]any, error)
	SchemaVersion() (int, error)
}

// AppInfo identifies the application that wrote an export
type AppInfo struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// Document is the disaster-recovery dump of every application table. It is
// meant for inspection and is never re-imported.
type Document struct {
	SchemaVersion int                         `json:"schemaVersion" yaml:"schemaVersion"`
	ExportedAt    string                      `json:"exportedAt" yaml:"exportedAt"`
	App           AppInfo                     `json:"app" yaml:"app"`
	Data          map[string][]map[string]any `json:"data" yaml:"data"`
}

// BuildDocument collects the export document from src
func BuildDocument(src Exporter) (Document, error) {
	version, err := src.SchemaVersion()
	if err != nil {
		return Document{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	data, err := src.ExportTables()
	if err != nil {
		return Document{}, err
	}
	return Document{
		SchemaVersion: version,
		ExportedAt:    nowFunc().UTC().Format(time.RFC3339),
		App:           AppInfo{Name: constants.AppName, Version: constants.Version},
		Data:          data,
	}, nil
}

// WriteDocument encodes doc as indented JSON or YAML
func WriteDocument(w io.Writer, doc Document, format string) error {
	switch format {
	case "", constants.ExportFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case constants.ExportFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format %q (expected %s or %s)", format, constants.ExportFormatJSON, constants.ExportFormatYAML)
	}
}

// ExportFileName returns the default file name for an export written now
func ExportFileName(format string) string {
	if format == "" {
		format = constants.ExportFormatJSON
	}
	return constants.ExportFilePrefix + nowFunc().Format("20060102-150405") + "." + format
}
