package serialization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Decode parses a JSON flow document. err is only set when data is not a JSON
// object; field-level problems are returned as warnings.
func Decode(data []byte) (flow *domain.Flow, warnings []error, err error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse flow json: %w", err)
	}
	if raw == nil {
		return nil, nil, fmt.Errorf("failed to parse flow json: document is null")
	}
	flow, warnings = domain.DecodeFlowMap(raw)
	return flow, warnings, nil
}

// DecodeYAML parses a YAML flow document with the same leniency as Decode.
func DecodeYAML(data []byte) (flow *domain.Flow, warnings []error, err error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse flow yaml: %w", err)
	}
	if raw == nil {
		return nil, nil, fmt.Errorf("failed to parse flow yaml: document is empty")
	}
	flow, warnings = domain.DecodeFlowMap(raw)
	return flow, warnings, nil
}

// Encode renders the flow as indented JSON.
func Encode(flow *domain.Flow) ([]byte, error) {
	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flow: %w", err)
	}
	return data, nil
}

// EncodeYAML renders the flow as YAML, keeping unknown fields.
func EncodeYAML(flow *domain.Flow) ([]byte, error) {
	data, err := json.Marshal(flow)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flow: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to marshal flow: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal flow yaml: %w", err)
	}
	return out, nil
}

// IsYAML reports whether path names a YAML document.
func IsYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ReadFile reads a flow from disk. Files ending in .yaml or .yml are parsed as
// YAML, everything else as JSON.
func ReadFile(path string) (*domain.Flow, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	if IsYAML(path) {
		return DecodeYAML(data)
	}
	return Decode(data)
}

// WriteFile writes a flow to disk atomically, choosing the format by extension
// like ReadFile.
func WriteFile(path string, flow *domain.Flow) error {
	var (
		data []byte
		err  error
	)
	if IsYAML(path) {
		data, err = EncodeYAML(flow)
	} else {
		data, err = Encode(flow)
	}
	if err != nil {
		return err
	}
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to a temporary file in the destination directory,
// syncs it and renames it over path.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
