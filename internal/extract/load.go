package extract

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yml
var defaultsFS embed.FS

// parseSchema decodes and validates one schema document.
func parseSchema(data []byte) (*Schema, error) {
	var s Schema
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &s, nil
}

// Load reads and validates a schema from a YAML file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	s, err := parseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// DefaultNames lists the built-in schema names, sorted.
func DefaultNames() []string {
	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yml"))
	}
	sort.Strings(names)
	return names
}

// LoadDefault loads one of the built-in schemas (medline, embase,
// scopus) by name, case-insensitively.
func LoadDefault(name string) (*Schema, error) {
	data, err := defaultsFS.ReadFile("defaults/" + strings.ToLower(name) + ".yml")
	if err != nil {
		return nil, fmt.Errorf("no built-in schema %q (have %s)", name, strings.Join(DefaultNames(), ", "))
	}
	s, err := parseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("built-in schema %s: %w", name, err)
	}
	return s, nil
}

// ForFile picks the schema for a source file: the built-in schema whose
// name prefixes the file's base name, case-insensitively. A file named
// medline_result.csv selects the medline schema.
func ForFile(path string) (*Schema, error) {
	base := strings.ToLower(filepath.Base(path))
	for _, name := range DefaultNames() {
		if strings.HasPrefix(base, name) {
			return LoadDefault(name)
		}
	}
	return nil, fmt.Errorf("cannot detect a schema for %s: name one of %s or pass a schema file", filepath.Base(path), strings.Join(DefaultNames(), ", "))
}
