// Copyright (C) 2026 groundlink contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package decoder

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json schemas/packet.schema.json schemas/mappings/*.json
var embeddedSchemas embed.FS

// Registry holds every packet schema and named integer->string mapping
// table known to this decoder, keyed by packet name and table name
// respectively. It is built once at process start and is read-only
// afterwards, so it is safe for concurrent use by every health-consumer
// goroutine.
type Registry struct {
	packets  map[string]*PacketSchema
	mappings map[string]map[int]string
}

// Lookup returns the schema registered under name.
func (reg *Registry) Lookup(name string) (*PacketSchema, bool) {
	s, ok := reg.packets[name]
	return s, ok
}

// Mappings returns the full mapping-table set, ready to pass to Decode.
func (reg *Registry) Mappings() map[string]map[int]string { return reg.mappings }

// Names lists every registered packet name, sorted for stable logging.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.packets))
	for n := range reg.packets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadRegistry reads every schemas/*.json and schemas/mappings/*.json
// file embedded in the binary, validates each packet schema against
// packet.schema.json (the structural JSON Schema, checked the way the
// admin config files are checked), and returns a ready-to-use Registry.
func LoadRegistry() (*Registry, error) {
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = loadFromEmbedFS(compiler.LoadURL)

	packetSchema, err := compiler.Compile("embedFS://schemas/packet.schema.json")
	if err != nil {
		return nil, fmt.Errorf("decoder: compiling packet.schema.json: %w", err)
	}

	reg := &Registry{
		packets:  map[string]*PacketSchema{},
		mappings: map[string]map[int]string{},
	}

	entries, err := fs.ReadDir(embeddedSchemas, "schemas")
	if err != nil {
		return nil, fmt.Errorf("decoder: reading embedded schemas dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || e.Name() == "packet.schema.json" {
			continue
		}

		raw, err := fs.ReadFile(embeddedSchemas, "schemas/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("decoder: reading %s: %w", e.Name(), err)
		}

		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decoder: parsing %s: %w", e.Name(), err)
		}
		if err := packetSchema.Validate(doc); err != nil {
			return nil, fmt.Errorf("decoder: %s failed structural validation: %w", e.Name(), err)
		}

		var ps PacketSchema
		if err := json.Unmarshal(raw, &ps); err != nil {
			return nil, fmt.Errorf("decoder: unmarshalling %s: %w", e.Name(), err)
		}
		if err := ps.Validate(); err != nil {
			return nil, fmt.Errorf("decoder: %s: %w", e.Name(), err)
		}
		if _, dup := reg.packets[ps.Name]; dup {
			return nil, fmt.Errorf("decoder: duplicate packet schema name %q", ps.Name)
		}
		reg.packets[ps.Name] = &ps
	}

	mapEntries, err := fs.ReadDir(embeddedSchemas, "schemas/mappings")
	if err != nil {
		return nil, fmt.Errorf("decoder: reading embedded mappings dir: %w", err)
	}
	for _, e := range mapEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := fs.ReadFile(embeddedSchemas, "schemas/mappings/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("decoder: reading mapping %s: %w", e.Name(), err)
		}
		var table map[string]string
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("decoder: parsing mapping %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		parsed := make(map[int]string, len(table))
		for k, v := range table {
			var iv int
			if _, err := fmt.Sscanf(k, "%d", &iv); err != nil {
				return nil, fmt.Errorf("decoder: mapping %s has non-integer key %q", e.Name(), k)
			}
			parsed[iv] = v
		}
		reg.mappings[name] = parsed
	}

	return reg, nil
}

// loadFromEmbedFS wires jsonschema's URL loader to the binary's
// embedded schema files under the "embedFS://" scheme, the same way
// the admin-config validator resolves its own embedded $refs.
func loadFromEmbedFS(fallback func(string) (interface{}, error)) func(string) (interface{}, error) {
	return func(url string) (interface{}, error) {
		const prefix = "embedFS://"
		if !strings.HasPrefix(url, prefix) {
			return fallback(url)
		}
		raw, err := fs.ReadFile(embeddedSchemas, strings.TrimPrefix(url, prefix))
		if err != nil {
			return nil, err
		}
		return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	}
}
