package cmd

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/internal/history"
	"github.com/nyxlab/nyx/internal/observability"
	"github.com/nyxlab/nyx/internal/orchestrator"
)

var askJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func newAskCmd() *cobra.Command {
	var (
		contextJSON string
		module      string
		noValidate  bool
		solve       bool
	)

	askCmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Asks Nyx a single question and prints the answer as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer observability.Sync()
			logger := observability.GetLogger()
			query := strings.Join(args, " ")

			var queryContext map[string]any
			if contextJSON != "" {
				if err := askJSON.Unmarshal([]byte(contextJSON), &queryContext); err != nil {
					return fmt.Errorf("invalid --context JSON: %w", err)
				}
			}

			nyx, err := orchestrator.New(cfg, logger, history.NewMemoryStore(cfg.History.Limit))
			if err != nil {
				return err
			}
			defer func() {
				if err := nyx.Shutdown(); err != nil {
					logger.Error("Shutdown error", zap.Error(err))
				}
			}()

			var opts []orchestrator.AskOption
			if noValidate {
				opts = append(opts, orchestrator.WithoutValidation())
			}
			if module != "" {
				opts = append(opts, orchestrator.WithModule(module))
			}

			var resp *orchestrator.Response
			if solve {
				resp, err = nyx.Solve(cmd.Context(), query, queryContext, opts...)
			} else {
				resp, err = nyx.Ask(cmd.Context(), query, queryContext, opts...)
			}
			if err != nil {
				return err
			}

			out, err := askJSON.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	askCmd.Flags().StringVar(&contextJSON, "context", "", "query context as a JSON object, e.g. '{\"resistance\": 1000}'")
	askCmd.Flags().StringVar(&module, "module", "", "force a specific module instead of scoring")
	askCmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip recursive result validation")
	askCmd.Flags().BoolVar(&solve, "solve", false, "route through the unified ScientificSolver")
	return askCmd
}

func init() {
	rootCmd.AddCommand(newAskCmd())
}
