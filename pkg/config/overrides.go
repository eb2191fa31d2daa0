package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
)

// overrideFile is the on-disk override file layout. YAML and JSON bodies both
// parse, so either works:
//
//	overrides:
//	  - environment: aws://111111111111/us-east-1
//	    source: Stack1/OldName/Resource
//	    destination: Stack1/NewName/Resource
type overrideFile struct {
	Overrides []overrideEntry `yaml:"overrides"`
}

type overrideEntry struct {
	Environment string `yaml:"environment"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
}

// LoadOverrideFile reads user-supplied mapping overrides from path.
func LoadOverrideFile(path string) ([]refactor.Override, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, refactor.NewConfigurationError("reading override file", err)
	}
	var file overrideFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, refactor.NewConfigurationError("parsing override file", err)
	}

	overrides := make([]refactor.Override, 0, len(file.Overrides))
	for i, entry := range file.Overrides {
		env, err := refactor.ParseEnvironment(entry.Environment)
		if err != nil {
			return nil, refactor.NewConfigurationError(fmt.Sprintf("override %d", i), err)
		}
		if entry.Source == "" || entry.Destination == "" {
			return nil, refactor.NewConfigurationError(
				fmt.Sprintf("override %d: source and destination are both required", i), nil)
		}
		overrides = append(overrides, refactor.Override{
			Environment:     env,
			SourcePath:      entry.Source,
			DestinationPath: entry.Destination,
		})
	}
	return overrides, nil
}
