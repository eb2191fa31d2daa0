package refactor

import (
	"fmt"
	"strings"
)

// Environment identifies one deployment target. Stacks are only ever compared
// against stacks deployed to the same environment.
type Environment struct {
	// Account is the target account ID.
	Account string `json:"account"`

	// Region is the target region (e.g. "us-east-1").
	Region string `json:"region"`
}

// String renders the environment in the aws://account/region URI form used by
// cloud assembly manifests and override files.
func (e Environment) String() string {
	return fmt.Sprintf("aws://%s/%s", e.Account, e.Region)
}

// ParseEnvironment parses an aws://account/region environment URI.
func ParseEnvironment(uri string) (Environment, error) {
	rest, ok := strings.CutPrefix(uri, "aws://")
	if !ok {
		return Environment{}, NewConfigurationError(
			fmt.Sprintf("invalid environment %q: expected aws://account/region", uri), nil)
	}
	account, region, ok := strings.Cut(rest, "/")
	if !ok || account == "" || region == "" {
		return Environment{}, NewConfigurationError(
			fmt.Sprintf("invalid environment %q: expected aws://account/region", uri), nil)
	}
	return Environment{Account: account, Region: region}, nil
}

// Resource is one infrastructure component instance, materialized from a
// template snapshot. Resources are never mutated after construction and are
// discarded after a single comparison pass.
type Resource struct {
	// Type is the resource kind identifier (e.g. "AWS::S3::Bucket").
	Type string `json:"type"`

	// Path is the fully-qualified logical location of the resource, stable
	// within its stack (construct path when available, otherwise
	// "StackName/LogicalID").
	Path string `json:"path"`

	// StackName is the name of the stack the resource belongs to.
	StackName string `json:"stackName"`

	// LogicalID is the template-level identifier, used to resolve intrinsic
	// references from sibling resources in the same stack.
	LogicalID string `json:"logicalId"`

	// Properties is the structured property data from the template. Values may
	// contain intrinsic references to other resources in the same stack.
	Properties map[string]interface{} `json:"properties,omitempty"`

	// RetentionProtected reports whether the resource's deletion and
	// update-replace policies both retain the underlying state. Resources
	// without this protection are still matched, but the caller is warned.
	RetentionProtected bool `json:"retentionProtected"`
}

// Stack is a named collection of resources plus its deployment identity.
type Stack struct {
	// Name is the stack name as deployed or as it would be deployed.
	Name string `json:"name"`

	// Environment is the deployment target the stack belongs to.
	Environment Environment `json:"environment"`

	// Resources are the resource definitions materialized from the stack's
	// template.
	Resources []Resource `json:"resources"`
}

// StackSummary describes one deployed stack as reported by the provider.
type StackSummary struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Mapping asserts that the resource at SourcePath was relocated to
// DestinationPath without any structural change.
type Mapping struct {
	SourcePath      string `json:"sourcePath"`
	DestinationPath string `json:"destinationPath"`
	Type            string `json:"type"`
}

// AmbiguousGroup is a digest-sharing cluster of resources for which no
// confident one-to-one mapping could be derived. At least one of the two sides
// has two or more members.
type AmbiguousGroup struct {
	SourcePaths      []string `json:"sourcePaths"`
	DestinationPaths []string `json:"destinationPaths"`
}

// Override is a user-asserted source-to-destination pairing that is honored
// verbatim, bypassing automatic matching for both endpoints.
type Override struct {
	Environment     Environment `json:"environment"`
	SourcePath      string      `json:"sourcePath" validate:"required"`
	DestinationPath string      `json:"destinationPath" validate:"required"`
}

// Phase is the state of one environment's comparison pipeline. Every
// environment ends in exactly one of the three terminal phases.
type Phase string

const (
	PhaseGathering Phase = "gathering"
	PhaseDigesting Phase = "digesting"
	PhaseMatching  Phase = "matching"

	// PhaseValidated means the difference between old and new is a pure
	// relocation; the report carries the mapping list.
	PhaseValidated Phase = "validated"

	// PhaseAmbiguous means at least one digest group could not be resolved
	// one-to-one; the report carries the ambiguous groups and no mappings.
	PhaseAmbiguous Phase = "ambiguous"

	// PhaseRejected means the old and new resource sets differ by more than
	// relocation; the report carries the validator's error.
	PhaseRejected Phase = "rejected"
)

// EnvironmentReport is the outcome of one environment's comparison.
type EnvironmentReport struct {
	// Environment is the deployment target this report covers.
	Environment Environment `json:"environment"`

	// Phase is the terminal phase the pipeline reached.
	Phase Phase `json:"phase"`

	// Mappings is the merged, source-path-ordered relocation plan. Empty
	// unless Phase is PhaseValidated.
	Mappings []Mapping `json:"mappings,omitempty"`

	// AmbiguousGroups lists unresolved digest clusters. Empty unless Phase is
	// PhaseAmbiguous.
	AmbiguousGroups []AmbiguousGroup `json:"ambiguousGroups,omitempty"`

	// UnprotectedPaths lists mapped source paths whose resources lack a
	// retention policy, so a mis-applied relocation would be destructive.
	UnprotectedPaths []string `json:"unprotectedPaths,omitempty"`

	// Err is the rejection cause when Phase is PhaseRejected.
	Err error `json:"-"`
}

// ResultMessage is the wire form of one environment's result event.
type ResultMessage struct {
	Action         string        `json:"action"`
	Level          string        `json:"level"`
	Mappings       []Mapping     `json:"mappings,omitempty"`
	AmbiguousPaths [][2][]string `json:"ambiguousPaths,omitempty"`
	Message        string        `json:"message"`
}

// Result builds the wire message for this report.
func (r *EnvironmentReport) Result() ResultMessage {
	msg := ResultMessage{Action: "refactor", Level: "result"}
	switch r.Phase {
	case PhaseValidated:
		msg.Mappings = r.Mappings
		if len(r.Mappings) == 0 {
			msg.Message = fmt.Sprintf("%s: nothing to refactor", r.Environment)
		} else {
			msg.Message = fmt.Sprintf("%s: %d resource(s) to move", r.Environment, len(r.Mappings))
		}
	case PhaseAmbiguous:
		for _, g := range r.AmbiguousGroups {
			msg.AmbiguousPaths = append(msg.AmbiguousPaths, [2][]string{g.SourcePaths, g.DestinationPaths})
		}
		msg.Message = fmt.Sprintf("%s: %d ambiguous resource group(s); use an override to resolve them", r.Environment, len(r.AmbiguousGroups))
	case PhaseRejected:
		msg.Level = "error"
		msg.Message = r.Err.Error()
	}
	return msg
}
