package plugin

import (
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// ModuleMappings records which Swift module holds the generated code of each
// .proto file. Files that are not mapped are assumed to be generated into the
// same module as the file that imports them.
//
// The mapping file is YAML:
//
//	mapping:
//	  - module_name: MyProtos
//	    proto_file_path:
//	      - foo/bar.proto
//	      - foo/baz.proto
type ModuleMappings struct {
	moduleByPath map[string]string
}

type moduleMappingsFile struct {
	Mapping []struct {
		ModuleName    string   `yaml:"module_name"`
		ProtoFilePath []string `yaml:"proto_file_path"`
	} `yaml:"mapping"`
}

func intPtr(i int) *int { return &i }

// moduleMappingsSchema describes a valid mapping document.
var moduleMappingsSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"mapping": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"module_name", "proto_file_path"},
				Properties: map[string]*jsonschema.Schema{
					"module_name": {Type: "string", MinLength: intPtr(1)},
					"proto_file_path": {
						Type:     "array",
						MinItems: intPtr(1),
						Items:    &jsonschema.Schema{Type: "string", MinLength: intPtr(1)},
					},
				},
			},
		},
	},
}

// LoadModuleMappings reads and validates a mapping file.
func LoadModuleMappings(path string) (*ModuleMappings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading module mappings: %w", err)
	}
	mappings, err := ParseModuleMappings(data)
	if err != nil {
		return nil, fmt.Errorf("module mappings %s: %w", path, err)
	}
	return mappings, nil
}

// ParseModuleMappings decodes a YAML mapping document. An empty document
// yields empty mappings.
func ParseModuleMappings(data []byte) (*ModuleMappings, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		return &ModuleMappings{}, nil
	}

	resolved, err := moduleMappingsSchema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("resolving mapping schema: %w", err)
	}
	if err := resolved.Validate(doc); err != nil {
		return nil, err
	}

	var file moduleMappingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	m := &ModuleMappings{moduleByPath: make(map[string]string)}
	for _, entry := range file.Mapping {
		for _, protoPath := range entry.ProtoFilePath {
			if existing, ok := m.moduleByPath[protoPath]; ok && existing != entry.ModuleName {
				return nil, fmt.Errorf("%s is mapped to both %s and %s", protoPath, existing, entry.ModuleName)
			}
			m.moduleByPath[protoPath] = entry.ModuleName
		}
	}
	return m, nil
}

// moduleFor returns the module that contains the code generated for protoPath,
// or "" when the file is not mapped.
func (m *ModuleMappings) moduleFor(protoPath string) string {
	if m == nil {
		return ""
	}
	return m.moduleByPath[protoPath]
}
