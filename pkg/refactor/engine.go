package refactor

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vivian12300/aws-cdk-cli/pkg/telemetry"
)

// FeatureFlag is the unstable feature name callers must opt into before any
// entry point does work.
const FeatureFlag = "refactor"

// Options configures one planning run. Feature gating is part of the explicit
// run configuration, not ambient state, so concurrent invocations with
// different configurations behave correctly.
type Options struct {
	// Unstable lists the unstable features the caller has opted into. It must
	// contain "refactor".
	Unstable []string `json:"unstable"`

	// DryRun must be true: actually executing the relocation is not
	// implemented, and requesting it fails before any comparison work.
	DryRun bool `json:"dryRun"`

	// StackNames restricts the local stacks under comparison. Entries may be
	// glob patterns. Empty means all synthesized stacks.
	StackNames []string `json:"stackNames,omitempty"`

	// AdditionalStackNames names local stacks included in the comparison on
	// top of the selection, so that a resource moved into an unselected stack
	// is still accounted for.
	AdditionalStackNames []string `json:"additionalStackNames,omitempty"`

	// Overrides are user-asserted pairings applied before automatic matching.
	Overrides []Override `json:"overrides,omitempty" validate:"dive"`
}

// Engine plans stack refactors. It only ever operates in a read-only planning
// mode: it fetches deployed state through the provider, compares, and reports,
// and never touches live infrastructure.
type Engine struct {
	provider StackProvider
	synth    Synthesizer
	logger   zerolog.Logger
	events   *telemetry.EventPublisher
	validate *validator.Validate
}

// New creates a planning engine. The publisher may be nil, in which case no
// events are emitted.
func New(provider StackProvider, synth Synthesizer, logger zerolog.Logger, events *telemetry.EventPublisher) *Engine {
	return &Engine{
		provider: provider,
		synth:    synth,
		logger:   logger,
		events:   events,
		validate: validator.New(),
	}
}

// Plan runs the full comparison and returns one report per environment, in
// the order fixed by GroupByEnvironment. Configuration errors and provider
// failures abort the run; a rejected or ambiguous environment does not, and
// the remaining environments still proceed independently.
func (e *Engine) Plan(ctx context.Context, opts Options) ([]EnvironmentReport, error) {
	if err := e.checkOptions(opts); err != nil {
		return nil, err
	}

	local, err := e.synth.SynthesizeStacks(ctx)
	if err != nil {
		return nil, NewProviderError("synthesizing local stacks", err)
	}
	selected, err := selectStacks(local, opts.StackNames, opts.AdditionalStackNames)
	if err != nil {
		return nil, err
	}

	oldStacks, err := e.fetchDeployedStacks(ctx, selected)
	if err != nil {
		return nil, err
	}

	groups := GroupByEnvironment(oldStacks, selected)
	e.warnUnscopedOverrides(opts.Overrides, groups)
	for _, group := range groups {
		if err := checkOverridePaths(group, opts.Overrides); err != nil {
			return nil, err
		}
	}

	e.publish(telemetry.Event{
		Type:    telemetry.EventTypeRunStarted,
		Source:  "refactor-engine",
		Message: fmt.Sprintf("Comparing %d local stack(s) against deployed state in %d environment(s)", len(selected), len(groups)),
	})

	reports := make([]EnvironmentReport, 0, len(groups))
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.publish(telemetry.Event{
			Type:        telemetry.EventTypeEnvironmentStarted,
			Source:      "refactor-engine",
			Environment: group.Environment.String(),
			Message:     fmt.Sprintf("Comparing stacks in %s", group.Environment),
		})

		report, err := e.planEnvironment(group, opts)
		if err != nil {
			return nil, err
		}
		e.publishResult(report)
		reports = append(reports, report)
	}

	e.publish(telemetry.Event{
		Type:    telemetry.EventTypeRunCompleted,
		Source:  "refactor-engine",
		Message: fmt.Sprintf("Refactor planning completed for %d environment(s)", len(reports)),
	})
	return reports, nil
}

// checkOptions rejects invalid run configurations before any comparison work.
func (e *Engine) checkOptions(opts Options) error {
	if err := e.validate.Struct(opts); err != nil {
		return NewConfigurationError("invalid refactor options", err)
	}
	enabled := false
	for _, f := range opts.Unstable {
		if f == FeatureFlag {
			enabled = true
			break
		}
	}
	if !enabled {
		return NewConfigurationError(
			fmt.Sprintf("refactor is an unstable feature: opt in with unstable=%s", FeatureFlag), nil)
	}
	if !opts.DryRun {
		return NewConfigurationError("executing a refactor is not available yet; only dry-run planning is supported", nil)
	}
	return nil
}

// selectStacks restricts the synthesized stacks to the selection patterns
// plus the explicitly named additional stacks. A pattern or name that matches
// nothing is a configuration error.
func selectStacks(local []Stack, patterns, additional []string) ([]Stack, error) {
	if len(patterns) == 0 && len(additional) == 0 {
		return local, nil
	}
	matched := func(name string) (bool, error) {
		for _, p := range patterns {
			ok, err := path.Match(p, name)
			if err != nil {
				return false, NewConfigurationError(fmt.Sprintf("invalid stack pattern %q", p), err)
			}
			if ok {
				return true, nil
			}
		}
		for _, n := range additional {
			if n == name {
				return true, nil
			}
		}
		return false, nil
	}

	var selected []Stack
	names := make(map[string]struct{}, len(local))
	for _, s := range local {
		names[s.Name] = struct{}{}
		ok, err := matched(s.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			selected = append(selected, s)
		}
	}
	for _, n := range additional {
		if _, ok := names[n]; !ok {
			return nil, NewConfigurationError(fmt.Sprintf("additional stack %q is not part of the synthesized assembly", n), nil)
		}
	}
	return selected, nil
}

// fetchDeployedStacks builds the old inventory by listing and fetching every
// deployed stack in each environment the selected local stacks target.
// Environments are visited in first-seen order of the local stacks, and stack
// names are sorted, so the inventory order is deterministic.
func (e *Engine) fetchDeployedStacks(ctx context.Context, local []Stack) ([]Stack, error) {
	var envs []Environment
	seen := make(map[Environment]struct{})
	for _, s := range local {
		if _, ok := seen[s.Environment]; !ok {
			seen[s.Environment] = struct{}{}
			envs = append(envs, s.Environment)
		}
	}

	var oldStacks []Stack
	for _, env := range envs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summaries, err := e.provider.ListDeployedStacks(ctx, env)
		if err != nil {
			return nil, NewProviderError("listing deployed stacks", err).WithEnvironment(env)
		}
		sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })

		for _, summary := range summaries {
			stack, err := e.provider.GetDeployedTemplate(ctx, env, summary.Name)
			if err != nil {
				return nil, NewProviderError(fmt.Sprintf("fetching deployed template for stack %q", summary.Name), err).
					WithEnvironment(env)
			}
			e.logger.Debug().
				Str("stack", summary.Name).
				Str("environment", env.String()).
				Int("resources", len(stack.Resources)).
				Msg("Fetched deployed template")
			oldStacks = append(oldStacks, stack)
		}
	}
	return oldStacks, nil
}

// planEnvironment runs the digest/override/match/validate pipeline for one
// environment. Pools, digests, and mappings are private to this call; nothing
// is shared across environments.
func (e *Engine) planEnvironment(group EnvironmentStacks, opts Options) (EnvironmentReport, error) {
	report := EnvironmentReport{Environment: group.Environment, Phase: PhaseDigesting}
	oldPool, err := BuildPool(group.OldStacks)
	if err != nil {
		return e.reject(report, err)
	}
	newPool, err := BuildPool(group.NewStacks)
	if err != nil {
		return e.reject(report, err)
	}
	protected := make(map[string]bool, len(oldPool))
	for p, dr := range oldPool {
		protected[p] = dr.Resource.RetentionProtected
	}

	report.Phase = PhaseMatching
	forced, err := ApplyOverrides(group.Environment, opts.Overrides, oldPool, newPool)
	if err != nil {
		return report, err
	}
	res := Match(oldPool, newPool)

	if err := ValidateChanges(res.UnmatchedOld, res.UnmatchedNew); err != nil {
		return e.reject(report, err)
	}
	if len(res.AmbiguousGroups) > 0 {
		report.Phase = PhaseAmbiguous
		report.AmbiguousGroups = res.AmbiguousGroups
		return report, nil
	}

	report.Phase = PhaseValidated
	report.Mappings = append(forced, res.Mappings...)
	sort.Slice(report.Mappings, func(i, j int) bool {
		return report.Mappings[i].SourcePath < report.Mappings[j].SourcePath
	})
	for _, m := range report.Mappings {
		if !protected[m.SourcePath] {
			report.UnprotectedPaths = append(report.UnprotectedPaths, m.SourcePath)
		}
	}
	sort.Strings(report.UnprotectedPaths)
	return report, nil
}

func (e *Engine) reject(report EnvironmentReport, err error) (EnvironmentReport, error) {
	if IsConfiguration(err) {
		// Malformed input that the caller must fix stops the whole run.
		return report, err
	}
	report.Phase = PhaseRejected
	report.Err = err
	return report, nil
}

// checkOverridePaths validates override endpoints against the environment's
// resource paths. Plan runs it over every environment before the comparison
// loop starts, so a bad override anywhere rejects the run as a configuration
// error with no environment compared and no result events published.
func checkOverridePaths(group EnvironmentStacks, overrides []Override) error {
	oldPaths := stackPaths(group.OldStacks)
	newPaths := stackPaths(group.NewStacks)
	for _, o := range overrides {
		if o.Environment != group.Environment {
			continue
		}
		if _, ok := oldPaths[o.SourcePath]; !ok {
			return NewConfigurationError("override source not found among deployed resources", nil).
				WithPath(o.SourcePath).WithEnvironment(group.Environment)
		}
		if _, ok := newPaths[o.DestinationPath]; !ok {
			return NewConfigurationError("override destination not found among local resources", nil).
				WithPath(o.DestinationPath).WithEnvironment(group.Environment)
		}
	}
	return nil
}

func stackPaths(stacks []Stack) map[string]struct{} {
	paths := make(map[string]struct{})
	for _, s := range stacks {
		for _, r := range s.Resources {
			paths[r.Path] = struct{}{}
		}
	}
	return paths
}

// warnUnscopedOverrides logs overrides whose environment is not part of this
// run: a typo there would otherwise silently drop a user safety assertion.
func (e *Engine) warnUnscopedOverrides(overrides []Override, groups []EnvironmentStacks) {
	known := make(map[Environment]struct{}, len(groups))
	for _, g := range groups {
		known[g.Environment] = struct{}{}
	}
	for _, o := range overrides {
		if _, ok := known[o.Environment]; !ok {
			e.logger.Warn().
				Str("environment", o.Environment.String()).
				Str("source", o.SourcePath).
				Msg("Override ignored: its environment is not part of this comparison")
		}
	}
}

func (e *Engine) publish(event telemetry.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(event); err != nil {
		e.logger.Warn().Err(err).Str("type", event.Type).Msg("Failed to publish event")
	}
}

// publishResult emits one environment's result event and the retention
// warning, if any.
func (e *Engine) publishResult(report EnvironmentReport) {
	if len(report.UnprotectedPaths) > 0 {
		e.logger.Warn().
			Strs("paths", report.UnprotectedPaths).
			Str("environment", report.Environment.String()).
			Msg("Mapped resources are not protected by a retention policy; a mis-applied relocation would be destructive")
		e.publish(telemetry.Event{
			Type:        telemetry.EventTypeWarning,
			Source:      "refactor-engine",
			Environment: report.Environment.String(),
			Level:       telemetry.EventLevelWarning,
			Message: fmt.Sprintf("%d mapped resource(s) have no retention policy: %v",
				len(report.UnprotectedPaths), report.UnprotectedPaths),
		})
	}

	msg := report.Result()
	level := telemetry.EventLevelInfo
	if msg.Level == "error" {
		level = telemetry.EventLevelError
	}
	e.publish(telemetry.Event{
		Type:        telemetry.EventTypeEnvironmentResult,
		Source:      "refactor-engine",
		Environment: report.Environment.String(),
		Level:       level,
		Message:     msg.Message,
		Data:        map[string]interface{}{"result": msg},
	})
}
