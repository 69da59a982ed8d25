package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BenjaminSRussell/linkaudit/internal/config"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkaudit",
		Short: "Find broken links and soft 404s",
		Long: `linkaudit checks the links of a website or of a directory of rendered HTML.
It reports links that fail to load and pages that answer with a success status
but say the content does not exist (soft 404s).`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./linkaudit.yaml or ~/.linkaudit/linkaudit.yaml)")
	flags.String("log-level", "info", "Log level: trace/debug/info/warn/error")
	flags.String("log-file", "", "Also write JSON logs to this rotating file")
	flags.Bool("no-color", false, "Disable colored console output")
	flags.Int("concurrency", 1, "Number of tasks to run at once")
	flags.Duration("timeout", 10*time.Second, "Timeout of each HTTP request")
	flags.Duration("rate-limit", time.Second, "Delay after each task before its slot is reused")
	flags.Int("retries", 3, "Maximum attempts per request")
	flags.Duration("retries-timeout", 10*time.Second, "Delay between attempts")
	flags.StringArrayP("header", "H", nil, `Extra request header "Name: Value" (repeatable)`)

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewClassifyCmd())
	cmd.AddCommand(NewRulesCmd())

	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the run.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig loads the configuration with the command's flags applied
func loadConfig(cmd *cobra.Command) (*types.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path, cmd.Flags())
}
