package cmd

import (
	"fmt"
	"strconv"

	"github.com/lehigh-university-libraries/metgallery/internal/browse"
	"github.com/spf13/cobra"
)

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [query]",
		Short: "Interactively search, page through and favorite artworks",
		Long: `Opens an interactive terminal gallery.

Runs the default search on start unless a query is given. Search the
collection, move between pages of results, open artworks, keep
favorites and request AI insights from the configured insight proxy. Type
'help' at the prompt for the list of commands.`,
		Example: `  # Start browsing with the default search (DEFAULT_SEARCH, "sunflowers")
  metgallery browse

  # Start with a search already run
  metgallery browse "sunflowers"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := newController(opts.cfg)
			if err != nil {
				return err
			}

			query := opts.cfg.DefaultSearch
			if len(args) == 1 {
				query = args[0]
			}

			session := browse.New(ctrl, cmd.InOrStdin(), cmd.OutOrStdout(), browse.WithInitialSearch(query))
			return session.Run(cmd.Context())
		},
	}

	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Print one page of search results",
		Example: `  metgallery search "wheat field"
  metgallery search armor --page 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1")
			}

			ctrl, err := newController(opts.cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := ctrl.Search(ctx, args[0]); err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if page > 1 {
				if _, err := ctrl.LoadPage(ctx, page-1); err != nil {
					return fmt.Errorf("page %d of %d: %w", page, ctrl.PageCount(), err)
				}
			}

			browse.New(ctrl, nil, cmd.OutOrStdout()).Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page to show (1-based)")

	return cmd
}

func newFavoritesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List or change saved favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFavorites(cmd, opts)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorites with their titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFavorites(cmd, opts)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <objectID>",
		Short: "Add or remove an artwork from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid object id: %q", args[0])
			}
			favs, err := newFavoritesStore(opts.cfg)
			if err != nil {
				return err
			}
			was := favs.Has(id)
			switch now := favs.Toggle(id); {
			case now == was:
				return fmt.Errorf("favorites could not be saved to %s", opts.cfg.FavoritesPath)
			case now:
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d to favorites\n", id)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d from favorites\n", id)
			}
			return nil
		},
	})

	return cmd
}

func listFavorites(cmd *cobra.Command, opts *rootOptions) error {
	ctrl, err := newController(opts.cfg)
	if err != nil {
		return err
	}
	if _, err := ctrl.ShowFavorites(cmd.Context()); err != nil {
		return err
	}
	browse.New(ctrl, nil, cmd.OutOrStdout()).Render()
	return nil
}
