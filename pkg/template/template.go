// Package template parses CloudFormation template documents and materializes
// them into the resource model consumed by the refactor planning engine.
package template

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
)

// cdkPathMetadataKey is the resource metadata entry carrying the construct
// path assigned at synthesis time.
const cdkPathMetadataKey = "aws:cdk:path"

// Document is a parsed CloudFormation template.
type Document struct {
	AWSTemplateFormatVersion string                        `json:"AWSTemplateFormatVersion,omitempty"`
	Description              string                        `json:"Description,omitempty"`
	Parameters               map[string]json.RawMessage    `json:"Parameters,omitempty"`
	Resources                map[string]ResourceDefinition `json:"Resources"`
	Outputs                  map[string]json.RawMessage    `json:"Outputs,omitempty"`
}

// ResourceDefinition is one entry of a template's Resources section.
type ResourceDefinition struct {
	Type                string                 `json:"Type"`
	Properties          map[string]interface{} `json:"Properties,omitempty"`
	Metadata            map[string]interface{} `json:"Metadata,omitempty"`
	DeletionPolicy      string                 `json:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string                 `json:"UpdateReplacePolicy,omitempty"`
	DependsOn           json.RawMessage        `json:"DependsOn,omitempty"`
	Condition           string                 `json:"Condition,omitempty"`
}

// Parse parses a template document from its JSON body.
func Parse(body []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	for logicalID, def := range doc.Resources {
		if def.Type == "" {
			return nil, fmt.Errorf("parsing template: resource %q has no Type", logicalID)
		}
	}
	return &doc, nil
}

// Build materializes the template into a stack for comparison. Resource paths
// come from the aws:cdk:path metadata when present, so they survive the
// provider's logical ID hashing; resources without it fall back to
// "StackName/LogicalID".
func Build(stackName string, env refactor.Environment, doc *Document) refactor.Stack {
	stack := refactor.Stack{
		Name:        stackName,
		Environment: env,
		Resources:   make([]refactor.Resource, 0, len(doc.Resources)),
	}

	logicalIDs := make([]string, 0, len(doc.Resources))
	for logicalID := range doc.Resources {
		logicalIDs = append(logicalIDs, logicalID)
	}
	sort.Strings(logicalIDs)

	for _, logicalID := range logicalIDs {
		def := doc.Resources[logicalID]
		stack.Resources = append(stack.Resources, refactor.Resource{
			Type:               def.Type,
			Path:               resourcePath(stackName, logicalID, def),
			StackName:          stackName,
			LogicalID:          logicalID,
			Properties:         def.Properties,
			RetentionProtected: retentionProtected(def),
		})
	}
	return stack
}

func resourcePath(stackName, logicalID string, def ResourceDefinition) string {
	if p, ok := def.Metadata[cdkPathMetadataKey].(string); ok && p != "" {
		return p
	}
	return stackName + "/" + logicalID
}

// retentionProtected reports whether both the deletion and update-replace
// policies retain the underlying state, so that applying a wrong relocation
// could not destroy it.
func retentionProtected(def ResourceDefinition) bool {
	retains := func(policy string) bool {
		return policy == "Retain" || policy == "RetainExceptOnCreate"
	}
	return retains(def.DeletionPolicy) && retains(def.UpdateReplacePolicy)
}
