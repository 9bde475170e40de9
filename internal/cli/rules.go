package cli

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/setevik/crashtriage/internal/analysis"
)

func (a *app) rulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rule catalog",
		Long: `List every rule in evaluation order with its severity. Rules disabled
in the configuration are marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tSEVERITY\tSUMMARY")
			for _, r := range analysis.Rules() {
				summary := r.Summary
				if slices.Contains(a.cfg.Analysis.Disabled, r.Code) {
					summary += " (disabled)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Code, r.Severity, summary)
			}
			return tw.Flush()
		},
	}
}
