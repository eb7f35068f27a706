package capability

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest lists the capabilities a suite or service depends on.
type Manifest struct {
	Capabilities []Requirement `yaml:"capabilities"`
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes a YAML manifest. Unknown fields are rejected.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	for i, req := range m.Capabilities {
		if strings.TrimSpace(req.Name) == "" {
			return Manifest{}, fmt.Errorf("manifest entry %d: name is required", i)
		}
	}
	return m, nil
}

// ParseRequirement parses "name" or "name@minVersion".
func ParseRequirement(s string) (Requirement, error) {
	name, min, _ := strings.Cut(strings.TrimSpace(s), "@")
	if name == "" {
		return Requirement{}, fmt.Errorf("invalid requirement %q", s)
	}
	return Requirement{Name: name, MinVersion: min}, nil
}
