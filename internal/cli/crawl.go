package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BenjaminSRussell/linkaudit/internal/crawler"
	"github.com/BenjaminSRussell/linkaudit/internal/logging"
	"github.com/BenjaminSRussell/linkaudit/internal/report"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

// NewRunCmd creates the run command, which takes its seeds from the config
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the audit described by the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, func(*types.Config) {})
		},
	}
	addCrawlFlags(cmd)
	addAuditFlags(cmd)
	return cmd
}

// NewCrawlCmd creates the crawl command
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl URL...",
		Short: "Crawl a site from seed URLs and check every link",
		Example: `  linkaudit crawl https://example.com/
  linkaudit crawl --concurrency 4 --rate-limit 500ms --seed-sitemaps https://example.com/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, func(config *types.Config) {
				config.UseInitialURLs = true
				config.InitialURLs = args
			})
		},
	}
	addCrawlFlags(cmd)
	return cmd
}

// NewAuditCmd creates the audit command
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit DIR...",
		Short: "Check the absolute links found in local files",
		Example: `  linkaudit audit ./public
  linkaudit audit --extensions html,htm --check-local-links ./public`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, func(config *types.Config) {
				config.UseInitialURLs = false
				config.InitialDirectories = args
			})
		},
	}
	addAuditFlags(cmd)
	return cmd
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("seed-sitemaps", false, "Also crawl URLs listed in each seed host's sitemap")
	cmd.Flags().Bool("respect-robots", false, "Skip internal pages disallowed by robots.txt")
	cmd.Flags().Bool("dedup-external", false, "Check each external URL once per run")
	cmd.Flags().String("visited-backend", "exact", "Visited set backend: exact/bloom")
}

func addAuditFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("check-local-links", false, "Check that relative links point to existing files")
	cmd.Flags().StringSlice("extensions", nil, "Only audit files with these extensions")
	if cmd.Flags().Lookup("dedup-external") == nil {
		cmd.Flags().Bool("dedup-external", false, "Check each external URL once per run")
	}
}

// runAudit loads the config, runs one crawl and prints the summary
func runAudit(cmd *cobra.Command, seed func(*types.Config)) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	seed(config)

	logger, closer, err := logging.New(config.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	reporter := report.New(logger)
	c, err := crawler.New(*config, crawler.Deps{Reporter: reporter, Logger: logger})
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	results, err := c.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	out := cmd.OutOrStdout()
	reporter.PrintSummary(out)
	fmt.Fprintf(out, "Discovered: %d, Processed: %d, Findings: %d\n",
		results.Discovered, results.Processed, results.Findings())

	return nil
}
