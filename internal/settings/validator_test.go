// Where: internal/settings/validator_test.go
// What: Tests for settings schema validation.
package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validSettings = `{
  "gcp_sub": "order-events",
  "service_client": "service_client.json",
  "database": {"host": "127.0.0.1", "port": "5432"},
  "strategies": {
    "momentum": {"name": "momentum", "max_positions": 5}
  }
}`

func TestValidateAcceptsWellFormedSettings(t *testing.T) {
	if err := Validate([]byte(validSettings)); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateOptionalDatabase(t *testing.T) {
	content := `{
  "gcp_sub": "order-events",
  "service_client": "service_client.json",
  "strategies": {"momentum": {"name": "momentum", "max_positions": 1}}
}`
	if err := Validate([]byte(content)); err != nil {
		t.Fatalf("database should be optional: %v", err)
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	content := `{
  "service_client": "service_client.json",
  "strategies": {"momentum": {"name": "momentum", "max_positions": 1}}
}`
	if err := Validate([]byte(content)); err == nil {
		t.Fatal("expected error for missing gcp_sub")
	}
}

func TestValidateRejectsBadStrategy(t *testing.T) {
	content := `{
  "gcp_sub": "order-events",
  "service_client": "service_client.json",
  "strategies": {"momentum": {"name": "momentum", "max_positions": "many"}}
}`
	if err := Validate([]byte(content)); err == nil {
		t.Fatal("expected error for non-integer max_positions")
	}
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	err := Validate([]byte("{not json"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "parse settings json") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.json")
	if err := os.WriteFile(path, []byte(validSettings), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := ValidateFile(path); err != nil {
		t.Fatalf("validate file: %v", err)
	}
	if err := ValidateFile(filepath.Join(dir, "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
