package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/internal/history"
	"github.com/nyxlab/nyx/internal/observability"
	"github.com/nyxlab/nyx/internal/orchestrator"
)

func newModulesCmd() *cobra.Command {
	var capabilities bool

	modulesCmd := &cobra.Command{
		Use:   "modules",
		Short: "Lists the registered modules and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer observability.Sync()
			logger := observability.GetLogger()

			nyx, err := orchestrator.New(cfg, logger, history.NewMemoryStore(cfg.History.Limit))
			if err != nil {
				return err
			}
			defer func() {
				if err := nyx.Shutdown(); err != nil {
					logger.Error("Shutdown error", zap.Error(err))
				}
			}()

			var payload any
			if capabilities {
				payload = map[string]any{"capabilities": nyx.Capabilities()}
			} else {
				payload = nyx.ListModules()
			}

			out, err := askJSON.MarshalIndent(payload, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render module list: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	modulesCmd.Flags().BoolVar(&capabilities, "capabilities", false, "print the flat capability list instead of per-module info")
	return modulesCmd
}

func init() {
	rootCmd.AddCommand(newModulesCmd())
}
