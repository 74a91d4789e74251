package cmd

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/metgallery/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		outPath      string
		limit        int
		withInsights bool
	)

	cmd := &cobra.Command{
		Use:   "export <query>",
		Short: "Save search results to a Parquet or YAML file",
		Long: `Runs a search and writes the matching artwork records to a file.

The format follows the file extension. Parquet files hold the artwork fields;
YAML files can also carry an AI insight per artwork (--insights), requested
through the insight proxy.`,
		Example: `  metgallery export "sunflowers" --out sunflowers.parquet --limit 100
  metgallery export armor --out armor.yaml --limit 10 --insights`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}

			collectOpts := export.Options{Limit: limit}
			if withInsights {
				collectOpts.Insights = newInsightClient(opts.cfg)
			}

			records, err := export.Collect(cmd.Context(), newCollectionClient(opts.cfg), args[0], collectOpts)
			if err != nil {
				return err
			}
			if err := export.Write(outPath, args[0], records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(records), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (.parquet or .yaml)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records (0 for all)")
	cmd.Flags().BoolVar(&withInsights, "insights", false, "Request an AI insight for each record")

	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newInspectCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "inspect <file>",
		Short:   "Print records from an export file",
		Example: `  metgallery inspect sunflowers.parquet --limit 5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := export.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load export: %w", err)
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d records from %s\n", len(records), args[0])
			fmt.Fprintln(out, strings.Repeat("=", 80))

			for i, r := range records {
				fmt.Fprintf(out, "RECORD %d/%d\n", i+1, len(records))
				fmt.Fprintln(out, strings.Repeat("-", 80))
				fmt.Fprintf(out, "Object ID:      %d\n", r.Artwork.ObjectID)
				fmt.Fprintf(out, "Title:          %s\n", r.Artwork.Title)
				fmt.Fprintf(out, "Artist:         %s\n", r.Artwork.ArtistDisplayName)
				fmt.Fprintf(out, "Date:           %s\n", r.Artwork.ObjectDate)
				fmt.Fprintf(out, "Medium:         %s\n", r.Artwork.Medium)
				if r.Insight != "" {
					fmt.Fprintf(out, "Insight:        %s\n", r.Insight)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to print (0 for all)")

	return cmd
}
