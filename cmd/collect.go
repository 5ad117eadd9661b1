package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/naka-gawa/github-digest/internal/gateway"
	"github.com/naka-gawa/github-digest/internal/usecase"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collects activity and outputs the digest report as JSON",
	Long:  `Collects activity from the repositories you own over the lookback window and prints the analyzed report as JSON without publishing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		verbose, _ := cmd.Flags().GetBool("verbose")
		logger := newLogger(os.Stderr, verbose)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHubToken, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		activities, err := usecase.NewCollector(githubGateway, logger).CollectAll(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to collect activity: %w", err)
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(usecase.Analyze(activities), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}
