package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/registry"
	"github.com/vyuha/portfolioviz/internal/storage"
	"github.com/vyuha/portfolioviz/internal/ui"
)

// expandLocations expands local glob patterns ("data/**/*.json"). URLs and
// catalog: locations pass through untouched.
func expandLocations(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if strings.Contains(arg, "://") || strings.HasPrefix(arg, "catalog:") {
			out = append(out, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func importCmd() *cobra.Command {
	var slug string

	cmd := &cobra.Command{
		Use:   "import <location>...",
		Short: "Import portfolio documents into the catalog",
		Long: `Fetch, validate and store portfolio documents. Locations may be file
paths, doublestar globs, http(s):// URLs or s3:// URIs.

  portfolioctl import portfolios/*.json
  portfolioctl import 'data/**/*.json'
  portfolioctl import s3://bucket/portfolios/acme.json --slug acme`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			locations, err := expandLocations(args)
			if err != nil {
				return err
			}
			if slug != "" && len(locations) != 1 {
				return fmt.Errorf("--slug needs exactly one location, got %d", len(locations))
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			failed := 0
			for _, loc := range locations {
				p, raw, err := loadPortfolio(ctx, cfg, loc)
				if err != nil {
					failed++
					fmt.Fprintf(out, "  %s %s\n", ui.StatusIcon(false), err)
					continue
				}

				s := slug
				if s == "" {
					s = registry.SlugFor(loc)
				}
				info := portfolio.Summarize(p, 0)
				rec := &storage.PortfolioRecord{
					Slug:          storage.Slug(s),
					Title:         p.Title,
					Source:        loc,
					NodeCount:     info.NodeCount,
					EdgeCount:     info.EdgeCount,
					BuildingCount: info.BuildingCount,
				}
				changed, err := store.SavePortfolio(ctx, rec, raw)
				if err != nil {
					failed++
					fmt.Fprintf(out, "  %s %s: %v\n", ui.StatusIcon(false), loc, err)
					continue
				}
				note := "imported"
				if !changed {
					note = "unchanged"
				}
				fmt.Fprintf(out, "  %s %-24s %s %s\n", ui.StatusIcon(true), rec.Slug,
					ui.Subtle.Sprintf("%d buildings", rec.BuildingCount), note)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d imports failed", failed, len(locations))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "Catalog slug (single location only)")
	return cmd
}

func rankingCmd() *cobra.Command {
	var minBuildings int

	cmd := &cobra.Command{
		Use:     "ranking",
		Aliases: []string{"ls", "list"},
		Short:   "List catalog portfolios by building count",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.RankByBuildingCount(cmd.Context(), minBuildings)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, ui.Subtle.Sprint("  No portfolios."))
				return nil
			}

			rows := make([][]string, 0, len(recs))
			for _, r := range recs {
				rows = append(rows, []string{
					r.Slug,
					r.Title,
					strconv.Itoa(r.BuildingCount),
					strconv.Itoa(r.NodeCount),
					strconv.Itoa(r.EdgeCount),
				})
			}
			ui.Table(out, []string{"SLUG", "TITLE", "BUILDINGS", "NODES", "EDGES"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&minBuildings, "min-buildings", 0, "Only show portfolios with at least this many buildings")
	return cmd
}
