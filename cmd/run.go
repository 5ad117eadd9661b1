package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/naka-gawa/github-digest/internal/gateway"
	"github.com/naka-gawa/github-digest/internal/render"
	"github.com/naka-gawa/github-digest/internal/usecase"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collects activity and publishes the daily digest",
	Long: `Collects activity from the repositories you own over the lookback window,
renders the digest as Markdown and opens it as an issue in the digest repository.
With --dry-run the Markdown is printed to standard output instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		verbose, _ := cmd.Flags().GetBool("verbose")
		logger := newLogger(os.Stderr, verbose)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHubToken, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		collector := usecase.NewCollector(githubGateway, logger)

		logger.Info().Int("lookback_hours", cfg.LookbackHours).Msg("collecting activity")
		activities, err := collector.CollectAll(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to collect activity: %w", err)
		}
		logger.Info().Int("repos", len(activities)).Msg("found activity")

		report := usecase.Analyze(activities)
		now := time.Now()
		markdown, err := render.Markdown(report, now)
		if err != nil {
			return err
		}

		if dryRun {
			fmt.Fprint(cmd.OutOrStdout(), markdown)
			return nil
		}

		logger.Info().Str("repo", cfg.DigestRepo).Msg("publishing digest")
		publisher := usecase.NewPublisher(githubGateway, logger)
		issueURL, err := publisher.Publish(ctx, cfg.DigestRepo, markdown, cfg.DigestLabel, now)
		if err != nil {
			return fmt.Errorf("failed to publish digest: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), issueURL)
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "Print the digest instead of publishing it")
	runCmd.Flags().String("digest-repo", "", "Repository (owner/repo) that receives the digest issue")
	runCmd.Flags().String("label", "", "Label applied to the digest issue")
}
