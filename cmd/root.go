// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/naka-gawa/github-digest/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-digest",
	Short: "A CLI tool that publishes a daily digest of GitHub activity.",
	Long: `github-digest collects CI runs, pull requests and issues across the
repositories you own, summarizes them into a daily report and publishes
the report as a labeled issue in a digest repository.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")

	for _, c := range []*cobra.Command{runCmd, collectCmd} {
		addCollectFlags(c)
		rootCmd.AddCommand(c)
	}
}

// addCollectFlags defines the flags shared by every command that collects activity.
func addCollectFlags(c *cobra.Command) {
	c.Flags().Int("lookback-hours", 0, "Size of the lookback window in hours")
	c.Flags().String("exclude", "", "Repositories to skip (owner/repo), comma-separated")
	c.Flags().Int("concurrency", 0, "Number of repositories fetched in parallel")
	c.Flags().String("review-source", "", "Where review decisions come from: rest or graphql")
}

// newLogger writes human-readable logs to w, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("lookback-hours") {
		cfg.LookbackHours, _ = flags.GetInt("lookback-hours")
	}
	if flags.Changed("exclude") {
		exclude, _ := flags.GetString("exclude")
		cfg.ExcludeRepos = config.SplitList(exclude)
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("review-source") {
		cfg.ReviewSource, _ = flags.GetString("review-source")
	}
	if flags.Lookup("digest-repo") != nil && flags.Changed("digest-repo") {
		cfg.DigestRepo, _ = flags.GetString("digest-repo")
	}
	if flags.Lookup("label") != nil && flags.Changed("label") {
		cfg.DigestLabel, _ = flags.GetString("label")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
