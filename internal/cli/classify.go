package cli

import (
	"fmt"
	"net/url"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/BenjaminSRussell/linkaudit/internal/classifier"
)

// NewClassifyCmd creates the classify command
func NewClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify URL...",
		Short: "Show how each URL would be checked",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rules, err := classifier.New(config.RulesConfig)
			if err != nil {
				return err
			}

			tbl := table.New("URL", "Action", "Rule", "Detail").WithWriter(cmd.OutOrStdout())
			for _, raw := range args {
				u, err := url.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid URL %q: %w", raw, err)
				}

				action := rules.Classify(u)
				rule := "generic"
				if action.Rule != nil {
					rule = action.Rule.String()
				}

				detail := ""
				switch action.Kind {
				case classifier.KindProbe:
					detail = "HEAD " + action.ProbeURL
				case classifier.KindAlwaysNotFound:
					detail = "GET, reachability only"
				default:
					detail = "GET, soft 404 if " + action.Test.String()
				}

				tbl.AddRow(raw, action.Kind, rule, detail)
			}
			tbl.Print()

			return nil
		},
	}
}
