package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
	"github.com/vivian12300/aws-cdk-cli/pkg/template"
)

const (
	manifestFileName  = "manifest.json"
	stackArtifactType = "aws:cloudformation:stack"
)

// manifest is the slice of a cloud assembly manifest the reader needs.
type manifest struct {
	Version   string                      `json:"version"`
	Artifacts map[string]manifestArtifact `json:"artifacts"`
}

type manifestArtifact struct {
	Type        string             `json:"type"`
	Environment string             `json:"environment"`
	Properties  artifactProperties `json:"properties"`
}

type artifactProperties struct {
	TemplateFile string `json:"templateFile"`
	StackName    string `json:"stackName,omitempty"`
}

// Assembly is a synthesized cloud assembly directory, already resolved to
// concrete stacks. It implements refactor.Synthesizer.
type Assembly struct {
	// Directory is the assembly root (typically cdk.out).
	Directory string

	stacks []refactor.Stack
}

// LoadAssembly reads a synthesized cloud assembly directory: its manifest
// plus one template document per stack artifact. Stacks are returned in
// sorted artifact order so runs over the same assembly are deterministic.
func LoadAssembly(dir string) (*Assembly, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("reading assembly manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing assembly manifest: %w", err)
	}

	ids := make([]string, 0, len(m.Artifacts))
	for id, artifact := range m.Artifacts {
		if artifact.Type == stackArtifactType {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	asm := &Assembly{Directory: dir}
	for _, id := range ids {
		artifact := m.Artifacts[id]
		env, err := refactor.ParseEnvironment(artifact.Environment)
		if err != nil {
			return nil, fmt.Errorf("artifact %q: %w", id, err)
		}
		body, err := os.ReadFile(filepath.Join(dir, artifact.Properties.TemplateFile))
		if err != nil {
			return nil, fmt.Errorf("artifact %q: reading template: %w", id, err)
		}
		doc, err := template.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("artifact %q: %w", id, err)
		}
		name := artifact.Properties.StackName
		if name == "" {
			name = id
		}
		asm.stacks = append(asm.stacks, template.Build(name, env, doc))
	}
	return asm, nil
}

// SynthesizeStacks returns the assembly's stacks.
func (a *Assembly) SynthesizeStacks(_ context.Context) ([]refactor.Stack, error) {
	return a.stacks, nil
}
