// Where: internal/settings/validator.go
// What: Schema validation for trading-app settings files.
// Why: Catch malformed settings before they are staged into the image.
package settings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

//go:embed schema/settings.schema.yaml
var schemaYAML []byte

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

// ValidateFile reads and validates a settings file against the embedded
// schema. The file content is JSON; the schema itself is kept in YAML and
// converted at load time.
func ValidateFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Validate(content); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate checks settings content against the embedded schema.
func Validate(content []byte) error {
	sch, err := loadSchema()
	if err != nil {
		return err
	}

	var document any
	if err := json.Unmarshal(content, &document); err != nil {
		return fmt.Errorf("parse settings json: %w", err)
	}

	return sch.Validate(document)
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		jsonData, err := yaml.YAMLToJSON(schemaYAML)
		if err != nil {
			schemaErr = fmt.Errorf("convert schema yaml to json: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("settings.schema.json", bytes.NewReader(jsonData)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("settings.schema.json")
	})
	return compiledSchema, schemaErr
}
