package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"

	schemaURL = "https://codebelt.net/schemas/bump-nuget/registry.json"
)

var ErrInvalidRegistry = errors.New("invalid registry")

var (
	//go:embed default_registry.yaml
	defaultRegistryYAML []byte

	//go:embed registry.schema.json
	registrySchemaJSON []byte
)

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(registrySchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("decode registry schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add registry schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile registry schema: %w", err)
	}
	return schema, nil
})

type registryDocument struct {
	Sources map[string][]string `json:"sources"`
}

// Default returns the registry compiled into the binary.
func Default() (*Registry, error) {
	return Parse(defaultRegistryYAML, FormatYAML)
}

// Load reads a registry document; the extension selects the decoder.
func Load(path string) (*Registry, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	reg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}
	return reg, nil
}

func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported file extension %q (expected .yaml, .yml, .toml, .json)", ErrInvalidRegistry, filepath.Ext(path))
	}
}

// Parse decodes data, validates it against the registry schema and builds a
// Registry from it.
func Parse(data []byte, format Format) (*Registry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidRegistry)
	}

	normalized, err := toJSON(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(normalized))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}

	var doc registryDocument
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}
	return New(doc.Sources), nil
}

// toJSON re-encodes a YAML or TOML document as JSON so one schema covers
// every format.
func toJSON(data []byte, format Format) ([]byte, error) {
	var doc any
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		doc = table
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s as json: %w", format, err)
	}
	return out, nil
}
