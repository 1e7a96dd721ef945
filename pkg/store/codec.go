package store

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/jsonc"

	"github.com/agentstation/accesssync/pkg/access"
)

// Format is the on-disk encoding of an access document.
type Format int

// Format constants.
const (
	FormatJSON Format = iota
	FormatYAML
)

// IsValid checks if the format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// FormatFor picks the format from the file extension. Anything that is not
// YAML is read as JSON with comments allowed.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes doc as indented JSON or YAML.
func Encode(doc *access.Document, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		return yaml.JSONToYAML(data)
	}
	return append(data, '\n'), nil
}

// Decode parses a document. JSON input may carry comments and trailing
// commas.
func Decode(data []byte, format Format) (*access.Document, error) {
	var err error
	if format == FormatYAML {
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return nil, err
		}
	} else {
		data = jsonc.ToJSON(data)
	}

	var doc access.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
