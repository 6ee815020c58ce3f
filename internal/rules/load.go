// Package rules loads compliance rule tables from YAML and keeps the active
// classifier in sync with the file on disk.
package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"ihsan/internal/compliance"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("rules.schema.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("rules.schema.json")
	})
	return schemaCompiled, schemaErr
}

// Load reads a rule file. Keys present in the file replace the built-in
// defaults; absent keys keep them. An empty path returns the defaults.
func Load(path string) (compliance.Rules, error) {
	if strings.TrimSpace(path) == "" {
		return compliance.DefaultRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return compliance.Rules{}, fmt.Errorf("read rules failed: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw YAML against the rule schema and decodes it over the
// defaults.
func Parse(raw []byte) (compliance.Rules, error) {
	if err := validate(raw); err != nil {
		return compliance.Rules{}, err
	}
	rules := compliance.DefaultRules()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return compliance.Rules{}, fmt.Errorf("parse rules failed: %w", err)
	}
	return rules, nil
}

func validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse rules failed: %w", err)
	}
	if doc == nil {
		return nil
	}
	// round-trip through JSON so numbers and maps take the shapes the
	// validator expects
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rules are not representable as JSON: %w", err)
	}
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return err
	}
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile rules schema failed: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	return nil
}
