package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
)

func TestRefactorOptions_Validate(t *testing.T) {
	opts := RefactorOptions{App: "cdk.out", DryRun: true}
	if err := opts.Validate(); err != nil {
		t.Fatalf("Expected valid options, got: %v", err)
	}

	opts.App = ""
	if err := opts.Validate(); !refactor.IsConfiguration(err) {
		t.Errorf("Expected configuration error for missing app, got: %v", err)
	}
}

func TestParseUnstable(t *testing.T) {
	if _, err := ParseUnstable([]string{"refactor"}); err != nil {
		t.Fatalf("Expected refactor to be a known feature, got: %v", err)
	}
	if _, err := ParseUnstable([]string{"teleport"}); !refactor.IsConfiguration(err) {
		t.Errorf("Expected configuration error for unknown feature, got: %v", err)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestLoadOverrideFile_YAML(t *testing.T) {
	path := writeFile(t, "overrides.yaml", `
overrides:
  - environment: aws://111111111111/us-east-1
    source: Stack1/OldName/Resource
    destination: Stack1/NewName/Resource
`)

	overrides, err := LoadOverrideFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(overrides) != 1 {
		t.Fatalf("Expected one override, got %d", len(overrides))
	}
	o := overrides[0]
	if o.Environment.Account != "111111111111" || o.Environment.Region != "us-east-1" {
		t.Errorf("Unexpected environment: %+v", o.Environment)
	}
	if o.SourcePath != "Stack1/OldName/Resource" || o.DestinationPath != "Stack1/NewName/Resource" {
		t.Errorf("Unexpected paths: %+v", o)
	}
}

func TestLoadOverrideFile_JSON(t *testing.T) {
	// JSON is a YAML subset, so the same loader accepts both.
	path := writeFile(t, "overrides.json", `{
  "overrides": [
    {"environment": "aws://111111111111/eu-west-1", "source": "A/B", "destination": "A/C"}
  ]
}`)

	overrides, err := LoadOverrideFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(overrides) != 1 || overrides[0].Environment.Region != "eu-west-1" {
		t.Errorf("Unexpected overrides: %+v", overrides)
	}
}

func TestLoadOverrideFile_Invalid(t *testing.T) {
	missingDest := writeFile(t, "bad.yaml", `
overrides:
  - environment: aws://111111111111/us-east-1
    source: A/B
`)
	if _, err := LoadOverrideFile(missingDest); !refactor.IsConfiguration(err) {
		t.Errorf("Expected configuration error for missing destination, got: %v", err)
	}

	badEnv := writeFile(t, "bad-env.yaml", `
overrides:
  - environment: us-east-1
    source: A/B
    destination: A/C
`)
	if _, err := LoadOverrideFile(badEnv); !refactor.IsConfiguration(err) {
		t.Errorf("Expected configuration error for malformed environment, got: %v", err)
	}

	if _, err := LoadOverrideFile(filepath.Join(t.TempDir(), "absent.yaml")); !refactor.IsConfiguration(err) {
		t.Errorf("Expected configuration error for missing file, got: %v", err)
	}
}

func TestEngineOptions(t *testing.T) {
	path := writeFile(t, "overrides.yaml", `
overrides:
  - environment: aws://111111111111/us-east-1
    source: A/B
    destination: A/C
`)
	opts := RefactorOptions{
		App:          "cdk.out",
		Unstable:     []string{"refactor"},
		DryRun:       true,
		StackNames:   []string{"Prod*"},
		OverrideFile: path,
	}

	engineOpts, err := opts.EngineOptions()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(engineOpts.Overrides) != 1 {
		t.Errorf("Expected the override file to be loaded, got %+v", engineOpts.Overrides)
	}
	if len(engineOpts.StackNames) != 1 || engineOpts.StackNames[0] != "Prod*" {
		t.Errorf("Expected selection to pass through, got %+v", engineOpts.StackNames)
	}
}
