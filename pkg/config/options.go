// Package config carries the caller-supplied configuration for a refactor
// planning run: CLI options and the override file format.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
)

// RefactorOptions is the caller-facing configuration of one planning run.
type RefactorOptions struct {
	// App is the cloud assembly directory to compare against deployed state.
	App string `json:"app" validate:"required"`

	// Unstable lists the unstable features the caller has opted into.
	Unstable []string `json:"unstable,omitempty"`

	// DryRun controls the execution mode. Only dry-run planning is
	// implemented.
	DryRun bool `json:"dryRun"`

	// StackNames restricts the comparison to matching local stacks.
	StackNames []string `json:"stackNames,omitempty"`

	// AdditionalStackNames are local stacks included on top of the selection.
	AdditionalStackNames []string `json:"additionalStackNames,omitempty"`

	// OverrideFile is an optional path to a mapping override file.
	OverrideFile string `json:"overrideFile,omitempty"`

	// JSONOutput switches event rendering to one JSON document per event.
	JSONOutput bool `json:"json,omitempty"`
}

var validate = validator.New()

// Validate checks the options for structural validity.
func (o *RefactorOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		return refactor.NewConfigurationError("invalid refactor options", err)
	}
	return nil
}

// EngineOptions converts the caller configuration into engine options,
// loading the override file if one is named.
func (o *RefactorOptions) EngineOptions() (refactor.Options, error) {
	opts := refactor.Options{
		Unstable:             o.Unstable,
		DryRun:               o.DryRun,
		StackNames:           o.StackNames,
		AdditionalStackNames: o.AdditionalStackNames,
	}
	if o.OverrideFile != "" {
		overrides, err := LoadOverrideFile(o.OverrideFile)
		if err != nil {
			return refactor.Options{}, err
		}
		opts.Overrides = overrides
	}
	return opts, nil
}

// ParseUnstable validates the feature names given to --unstable.
func ParseUnstable(features []string) ([]string, error) {
	for _, f := range features {
		if f != refactor.FeatureFlag {
			return nil, refactor.NewConfigurationError(
				fmt.Sprintf("unknown unstable feature %q (known: %s)", f, refactor.FeatureFlag), nil)
		}
	}
	return features, nil
}
