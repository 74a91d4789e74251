package cmd

import (
	"fmt"
	"strconv"

	"github.com/lehigh-university-libraries/metgallery/internal/insight"
	"github.com/lehigh-university-libraries/metgallery/internal/models"
	"github.com/spf13/cobra"
)

func newInsightCmd(opts *rootOptions) *cobra.Command {
	var direct bool

	cmd := &cobra.Command{
		Use:   "insight <objectID>",
		Short: "Ask for AI commentary on one artwork",
		Long: `Fetches the artwork and asks the insight proxy for a short commentary.

With --direct the configured provider is called in-process instead of through
a running proxy. The provider credential must then be available locally.`,
		Example: `  # Through a proxy running on localhost:8888
  metgallery insight 436535

  # Without a proxy
  GEMINI_API_KEY=... metgallery insight 436535 --direct`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid object id: %q", args[0])
			}

			ctx := cmd.Context()
			record := newCollectionClient(opts.cfg).GetObject(ctx, id)
			if record == nil {
				return fmt.Errorf("artwork %d could not be loaded", id)
			}

			var resp *models.InsightResponse
			if direct {
				service, err := newProxyService(opts.cfg)
				if err != nil {
					return err
				}
				resp, err = service.Generate(ctx, models.InsightRequest{
					Prompt:   insight.BuildPrompt(record),
					ObjectID: models.ObjectIDFromInt(record.ObjectID),
				})
				if err != nil {
					return err
				}
			} else {
				resp, err = newInsightClient(opts.cfg).RequestInsightDetailed(ctx, record)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d)\n", record.Title, record.ObjectID)
			if resp.Cached {
				fmt.Fprintln(out, "(cached)")
			}
			fmt.Fprintln(out, resp.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&direct, "direct", false, "Call the provider directly instead of the proxy")

	return cmd
}
