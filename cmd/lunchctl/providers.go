package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/samirrijal/lunchpick/internal/adapters/provider"
	"github.com/samirrijal/lunchpick/internal/pkg/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List providers with configured credentials",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load("lunchctl")
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tKIND\tACTIVE\tREGION HINT")
		for _, p := range provider.FromConfig(cfg).Describe() {
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", p.Name, p.Kind, p.Active, p.NeedsRegionHint)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
