package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/voxmind/voxmind/infrastructure/config"
	"github.com/voxmind/voxmind/infrastructure/storage/badger"
)

// eventsOptions holds options for the events command.
type eventsOptions struct {
	configPath string
	agentID    string
	from       uint64
	jsonOutput bool
}

// newEventsCmd creates the events command.
func (a *App) newEventsCmd() *cobra.Command {
	opts := &eventsOptions{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print an agent's persisted event journal",
		Long: `Print the persisted event journal for an agent, oldest first.

The journal must be enabled and file-backed in the configuration; runs
with an in-memory journal leave nothing behind to inspect.

Examples:
  # Dump every event for the configured agent
  voxmind events -c config.yaml

  # Resume from a known sequence number
  voxmind events -c config.yaml --from 120`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listEvents(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().StringVar(&opts.agentID, "agent", "", "Agent ID (defaults to the configured agent)")
	cmd.Flags().Uint64Var(&opts.from, "from", 0, "First sequence number to print")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output events as JSON lines")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// listEvents opens the journal read-only and prints matching events.
func (a *App) listEvents(opts *eventsOptions) error {
	cfg, err := infraconfig.NewLoader().LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if !cfg.Journal.Enabled || cfg.Journal.InMemory || cfg.Journal.Dir == "" {
		return fmt.Errorf("config has no file-backed journal to inspect")
	}

	agentID := opts.agentID
	if agentID == "" {
		agentID = cfg.Agent.ID
	}

	journal, err := badger.NewJournal(badger.DefaultConfig(), badger.WithDir(cfg.Journal.Dir))
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer journal.Close()

	events, err := journal.ListFrom(context.Background(), agentID, opts.from)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	for _, e := range events {
		if opts.jsonOutput {
			line, err := json.Marshal(e)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, string(line))
			continue
		}
		fmt.Fprintf(a.stdout, "%6d  %s  %-18s %s\n", e.Sequence, e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.Payload)
	}
	if len(events) == 0 {
		fmt.Fprintf(a.stdout, "no events for agent %s\n", agentID)
	}
	return nil
}
