package refactor

import "context"

// StackProvider is the narrow capability interface onto the infrastructure
// provider. It is intentionally two operations so the matching core can be
// tested entirely against in-memory fixtures.
//
// The engine never retries or rate-limits these calls and never masks their
// failures: retry policy belongs to the implementation, and planning against
// possibly stale or partial state is unsafe.
type StackProvider interface {
	// ListDeployedStacks returns summaries of the stacks currently deployed
	// to the given environment.
	ListDeployedStacks(ctx context.Context, env Environment) ([]StackSummary, error)

	// GetDeployedTemplate returns the named deployed stack with its resources
	// materialized from the template currently in effect.
	GetDeployedTemplate(ctx context.Context, env Environment, stackName string) (Stack, error)
}

// Synthesizer supplies the stacks the user intends to deploy, already
// resolved to concrete resource definitions.
type Synthesizer interface {
	SynthesizeStacks(ctx context.Context) ([]Stack, error)
}
