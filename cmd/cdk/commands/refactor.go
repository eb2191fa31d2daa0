package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vivian12300/aws-cdk-cli/pkg/cloud"
	"github.com/vivian12300/aws-cdk-cli/pkg/config"
	"github.com/vivian12300/aws-cdk-cli/pkg/refactor"
	"github.com/vivian12300/aws-cdk-cli/pkg/telemetry"
)

func newRefactorCommand() *cobra.Command {
	var (
		app             string
		dryRun          bool
		overrideFile    string
		additionalNames []string
	)

	cmd := &cobra.Command{
		Use:   "refactor [STACKS...]",
		Short: "Plan a rename/relocation of resources across stacks",
		Long: `Compare the synthesized stacks against what is deployed and determine
whether the difference is purely a rename or relocation of resources.

If it is, the command reports one mapping per moved resource. If a resource
cannot be matched unambiguously, the ambiguous groups are reported instead and
an override file can force specific pairings. Any addition, removal, or
modification rejects the plan: a refactor must not change resources.

This feature is unstable and must be enabled with --unstable=refactor.
It currently only plans; applying the relocation is not available yet.`,
		Example: `  # Plan a refactor for every synthesized stack
  cdk refactor --unstable=refactor

  # Restrict the comparison, but keep an extra stack in scope
  cdk refactor --unstable=refactor 'Prod*' --additional-stack-name SharedStack

  # Resolve an ambiguous pairing
  cdk refactor --unstable=refactor --override-file refactor-overrides.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.RefactorOptions{
				App:                  app,
				Unstable:             unstable,
				DryRun:               dryRun,
				StackNames:           args,
				AdditionalStackNames: additionalNames,
				OverrideFile:         overrideFile,
				JSONOutput:           jsonOutput,
			}
			return runRefactor(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&app, "app", "cdk.out", "cloud assembly directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "only plan the refactor (execution is not available yet)")
	cmd.Flags().StringVar(&overrideFile, "override-file", "", "file with source->destination mapping overrides")
	cmd.Flags().StringSliceVar(&additionalNames, "additional-stack-name", nil, "local stacks to include in the comparison on top of the selection")

	return cmd
}

func runRefactor(cmd *cobra.Command, opts config.RefactorOptions) error {
	ctx := cmd.Context()

	if err := opts.Validate(); err != nil {
		return err
	}
	if _, err := config.ParseUnstable(opts.Unstable); err != nil {
		return err
	}
	engineOpts, err := opts.EngineOptions()
	if err != nil {
		return err
	}

	assembly, err := cloud.LoadAssembly(opts.App)
	if err != nil {
		return err
	}
	provider, err := cloud.NewCloudFormationProvider(ctx)
	if err != nil {
		return err
	}

	events := telemetry.NewEventPublisher(telemetry.DefaultEventsConfig())
	defer events.Close()
	events.Subscribe(renderEvent(opts.JSONOutput))

	engine := refactor.New(provider, assembly, log.Logger, events)
	reports, err := engine.Plan(ctx, engineOpts)
	if err != nil {
		return err
	}

	rejected := 0
	for _, r := range reports {
		if r.Phase == refactor.PhaseRejected {
			rejected++
		}
	}
	if rejected > 0 {
		return fmt.Errorf("refactor plan rejected for %d environment(s)", rejected)
	}
	return nil
}

// renderEvent writes engine events to stdout, either as JSON documents or in
// a human-readable form.
func renderEvent(asJSON bool) telemetry.EventSubscriber {
	return func(event telemetry.Event) {
		if asJSON {
			if out, err := json.Marshal(event); err == nil {
				fmt.Fprintln(os.Stdout, string(out))
			}
			return
		}
		switch event.Type {
		case telemetry.EventTypeEnvironmentResult:
			fmt.Fprintln(os.Stdout, event.Message)
			if result, ok := event.Data["result"].(refactor.ResultMessage); ok {
				renderResult(result)
			}
		case telemetry.EventTypeWarning:
			fmt.Fprintf(os.Stdout, "Warning: %s\n", event.Message)
		default:
			fmt.Fprintln(os.Stdout, event.Message)
		}
	}
}

func renderResult(result refactor.ResultMessage) {
	for _, m := range result.Mappings {
		fmt.Fprintf(os.Stdout, "  %s: %s -> %s\n", m.Type, m.SourcePath, m.DestinationPath)
	}
	for _, group := range result.AmbiguousPaths {
		fmt.Fprintf(os.Stdout, "  ambiguous: %v <-> %v\n", group[0], group[1])
	}
}
