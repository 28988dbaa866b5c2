package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxmind/voxmind/domain/config"
	infraconfig "github.com/voxmind/voxmind/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate an agent configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Required fields (name, version, agent id)
  - Backend and provider names, thresholds, and durations
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  voxmind validate -c config.yaml

  # Strict validation (fail on missing env vars)
  voxmind validate -c config.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (required)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on missing environment variables")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	loader := infraconfig.NewLoaderWithOptions(
		infraconfig.WithEnvExpansion(true),
		infraconfig.WithStrictEnv(opts.strict),
		infraconfig.WithValidation(true),
	)

	cfg, err := loader.LoadFile(opts.configPath)
	if err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			fmt.Fprintf(a.stderr, "Configuration is invalid:\n")
			for _, verr := range verrs {
				fmt.Fprintf(a.stderr, "  - %s: %s\n", verr.Path, verr.Message)
			}
			return fmt.Errorf("%d validation error(s)", len(verrs))
		}
		return err
	}

	fmt.Fprintf(a.stdout, "Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name:     %s %s\n", cfg.Name, cfg.Version)
	fmt.Fprintf(a.stdout, "  Agent:    %s\n", cfg.Agent.ID)
	fmt.Fprintf(a.stdout, "  Planner:  %s\n", cfg.Planner.Provider)
	fmt.Fprintf(a.stdout, "  Cache:    %s\n", cfg.Cache.Backend)
	fmt.Fprintf(a.stdout, "  Snapshot: %s\n", cfg.Snapshots.Backend)
	return nil
}
