package cli

import (
	"fmt"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/BenjaminSRussell/linkaudit/internal/classifier"
)

// NewRulesCmd creates the rules command
func NewRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the loaded classification rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rules, err := classifier.New(config.RulesConfig)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tbl := table.New("Table", "#", "Hostname", "Path", "Action").WithWriter(out)
			for _, r := range rules.Rules() {
				action := ""
				switch r.Table {
				case classifier.TableOEmbed:
					action = "probe " + r.RedirectPrefix
				case classifier.TableNotFound:
					action = "reachability only"
				default:
					action = "soft 404 if " + r.Test.String()
				}
				tbl.AddRow(r.Table, r.Index, r.Hostname, r.Path, action)
			}
			tbl.Print()

			fmt.Fprintf(out, "\nGeneric test: soft 404 if %s\n", rules.Generic())
			return nil
		},
	}
}
