package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/plan"
	"github.com/voxmind/voxmind/domain/reactive"
	infraconfig "github.com/voxmind/voxmind/infrastructure/config"
	"github.com/voxmind/voxmind/infrastructure/sim"
	"github.com/voxmind/voxmind/interfaces/api"
)

// defaultTickInterval drives the loop when the config leaves it unset.
const defaultTickInterval = 50 * time.Millisecond

// runOptions holds options for the run command.
type runOptions struct {
	configPath string
	command    string
	timeout    time.Duration
	jsonOutput bool
	verbose    bool
}

// runSummary is the machine-readable result of a run.
type runSummary struct {
	AgentID       string `json:"agent_id"`
	CorrelationID string `json:"correlation_id"`
	Command       string `json:"command"`
	FinalState    string `json:"final_state"`
	Operations    int    `json:"operations"`
	Elapsed       string `json:"elapsed"`
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [command]",
		Short: "Run one command through a simulated agent",
		Long: `Run a natural language command against the configured agent using the
built-in deterministic world. The agent plans the command, drains the
resulting action queue tick by tick, and exits when it returns to idle.

Examples:
  # Run a command against a config file
  voxmind run -c config.yaml "build shelter"

  # Bound the run
  voxmind run -c config.yaml --timeout 30s "gather wood"

  # Emit a JSON summary and the live event stream
  voxmind run -c config.yaml --json -v "explore north"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.command = args[0]
			return a.runCommand(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "Abort the run after this long")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the run summary as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print agent events as they happen")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// runCommand executes one command end to end.
func (a *App) runCommand(ctx context.Context, opts *runOptions) error {
	cfg, err := infraconfig.NewLoader().LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	eff := sim.NewEffector()
	rt, err := api.NewRuntime(cfg, api.WithEffector(eff))
	if err != nil {
		return fmt.Errorf("building runtime: %w", err)
	}
	defer rt.Close()

	if opts.verbose {
		events := rt.Bus().Subscribe(64)
		go func() {
			for e := range events {
				fmt.Fprintf(a.stderr, "[%s] %s %s\n", e.Timestamp.Format(time.RFC3339), e.Type, e.Payload)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	started := time.Now()
	ack, err := rt.Submit(ctx, opts.command, plan.Snapshot{})
	if err != nil {
		return fmt.Errorf("submitting command: %w", err)
	}

	interval := time.Duration(cfg.Agent.TickInterval)
	if interval <= 0 {
		interval = defaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("run aborted in state %s: %w", rt.Agent().State(), ctx.Err())
		case <-ticker.C:
		}

		rt.Tick(ctx, reactive.Facts{})
		state := rt.Agent().State()
		if state == agent.StateError {
			return fmt.Errorf("agent entered error state")
		}
		if state == agent.StateIdle && rt.Agent().Executor().Idle() {
			break
		}
	}

	summary := runSummary{
		AgentID:       ack.AgentID,
		CorrelationID: ack.CorrelationID,
		Command:       ack.Command,
		FinalState:    string(rt.Agent().State()),
		Operations:    eff.Started(),
		Elapsed:       time.Since(started).Round(time.Millisecond).String(),
	}
	if opts.jsonOutput {
		encoded, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(encoded))
		return nil
	}

	fmt.Fprintf(a.stdout, "Command completed: %q\n", summary.Command)
	fmt.Fprintf(a.stdout, "  Agent:       %s\n", summary.AgentID)
	fmt.Fprintf(a.stdout, "  Correlation: %s\n", summary.CorrelationID)
	fmt.Fprintf(a.stdout, "  Operations:  %d\n", summary.Operations)
	fmt.Fprintf(a.stdout, "  Elapsed:     %s\n", summary.Elapsed)
	return nil
}
