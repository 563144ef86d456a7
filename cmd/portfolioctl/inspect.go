package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vyuha/portfolioviz/internal/graph"
	"github.com/vyuha/portfolioviz/internal/layout"
	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/ui"
)

func infoCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "info <location>",
		Short: "Summarize a portfolio",
		Long: `Print counts and the most connected names and business addresses.

  portfolioctl info acme.json
  portfolioctl info catalog:acme --top 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, _, err := loadPortfolio(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			info := portfolio.Summarize(p, top)

			out := cmd.OutOrStdout()
			title := info.Title
			if title == "" {
				title = portfolio.SuggestedTitle(p)
			}
			ui.Banner(out, title)
			fmt.Fprintf(out, "  %-18s %d\n", "Nodes", info.NodeCount)
			fmt.Fprintf(out, "  %-18s %d\n", "Edges", info.EdgeCount)
			fmt.Fprintf(out, "  %-18s %d\n", "Names", info.NameCount)
			fmt.Fprintf(out, "  %-18s %d\n", "Business addresses", info.BusinessAddressCount)
			fmt.Fprintf(out, "  %-18s %d\n", "Buildings", info.BuildingCount)
			fmt.Fprintf(out, "  %-18s %d\n", "Local bridges", info.LocalBridgeCount)

			printRanked(cmd, "Top names", info.TopNames)
			printRanked(cmd, "Top business addresses", info.TopBusinessAddresses)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "Entries per ranking (0 = all)")
	return cmd
}

func printRanked(cmd *cobra.Command, heading string, ranked []portfolio.Ranked) {
	if len(ranked) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n  %s\n", ui.Info.Sprint(heading))
	rows := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, []string{r.Label, strconv.Itoa(r.Registrations)})
	}
	ui.Table(out, []string{"LABEL", "REGISTRATIONS"}, rows)
}

func dotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dot <location>",
		Short: "Write a portfolio as Graphviz DOT",
		Long: `Write the portfolio graph in DOT form on stdout.

  portfolioctl dot acme.json | dot -Tsvg > acme.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, m, err := loadModel(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			return graph.WriteDOT(cmd.OutOrStdout(), m)
		},
	}
}

func graphCmd() *cobra.Command {
	var pinned bool

	cmd := &cobra.Command{
		Use:   "graph <location>",
		Short: "Write a portfolio's render payload as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, m, err := loadModel(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}

			var pos func(int) (float64, float64, bool)
			if pinned {
				pos = layout.Compute(m, layoutConfig(cfg)).XY
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m.RenderData(pos))
		},
	}
	cmd.Flags().BoolVar(&pinned, "layout", true, "Pin nodes at computed layout positions")
	return cmd
}
