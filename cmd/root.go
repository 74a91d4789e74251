package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/metgallery/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags and the resolved config to every subcommand
type rootOptions struct {
	configPath string
	verbose    bool
	cfg        config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "metgallery",
		Short: "Browse the Met collection with AI-generated artwork insights",
		Long: `Metgallery searches the Metropolitan Museum of Art open-access collection,
pages through results, keeps a local favorites list, and asks a generative AI
model for short commentary on individual artworks.

The insight proxy (metgallery serve) holds the AI credential; clients only
ever talk to the proxy.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			setupLogger(opts.verbose)

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newBrowseCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newFavoritesCmd(opts))
	cmd.AddCommand(newInsightCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newInspectCmd())

	return cmd
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose || strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
