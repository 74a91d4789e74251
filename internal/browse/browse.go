package browse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/metgallery/internal/gallery"
	"github.com/lehigh-university-libraries/metgallery/internal/models"
)

const help = `Commands:
  search <query>   search the collection
  next, prev       move between gallery pages
  page <n>         jump to gallery page n (1-based)
  show <id>        open an artwork
  back             return from the artwork view
  fav [id]         toggle a favorite (defaults to the open artwork)
  favorites        list favorites
  gallery          return to search results
  insight          ask for AI commentary on the open artwork
  help             show this help
  quit             exit`

// Session is the terminal view. It renders controller state after each
// command and keeps no state of its own.
type Session struct {
	ctrl          *gallery.Controller
	in            io.Reader
	out           io.Writer
	initialSearch string
}

// Option configures a Session
type Option func(*Session)

// WithInitialSearch runs query when the session starts
func WithInitialSearch(query string) Option {
	return func(s *Session) {
		s.initialSearch = strings.TrimSpace(query)
	}
}

func New(ctrl *gallery.Controller, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{ctrl: ctrl, in: in, out: out}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads commands until quit, EOF or ctx is done
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Met Gallery. Type 'help' for commands.")
	fmt.Fprintln(s.out, strings.Repeat("=", 80))

	if s.initialSearch != "" {
		s.Execute(ctx, "search "+s.initialSearch)
	}

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nBrowsing interrupted.")
			return nil
		default:
		}

		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if s.Execute(ctx, scanner.Text()) {
			return nil
		}
	}
}

// Execute runs one command line and renders the result. It reports whether
// the session should end.
func (s *Session) Execute(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(cmd) {
	case "":
		return false
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, help)
		return false
	case "search", "s":
		err = s.ctrl.Search(ctx, arg)
	case "next", "n":
		err = s.ctrl.NextPage(ctx)
	case "prev", "p":
		err = s.ctrl.PrevPage(ctx)
	case "page":
		var n int
		if n, err = parseID(arg); err == nil {
			_, err = s.ctrl.LoadPage(ctx, n-1)
		}
	case "show":
		var id int
		if id, err = parseID(arg); err == nil {
			_, err = s.ctrl.ShowDetail(ctx, id)
		}
	case "back", "b":
		s.ctrl.Back()
	case "favorites", "favs":
		_, err = s.ctrl.ShowFavorites(ctx)
	case "gallery":
		_, err = s.ctrl.ShowGallery(ctx)
	case "fav", "f":
		err = s.toggle(arg)
	case "insight", "i":
		s.insight(ctx)
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type 'help' for commands.\n", cmd)
		return false
	}

	if err != nil {
		s.renderError(err)
		// a missing artwork still renders the detail view so 'back' is offered
		if !errors.Is(err, gallery.ErrArtworkNotFound) {
			return false
		}
	}
	s.Render()
	return false
}

func (s *Session) toggle(arg string) error {
	id := s.ctrl.State().CurrentDetailID
	if arg != "" {
		var err error
		if id, err = parseID(arg); err != nil {
			return err
		}
	}
	if id == 0 {
		return errors.New("no artwork selected, use: fav <id>")
	}
	was := s.ctrl.IsFavorite(id)
	switch now := s.ctrl.ToggleFavorite(id); {
	case now == was:
		return errors.New("favorites could not be saved")
	case now:
		fmt.Fprintf(s.out, "Added %d to favorites\n", id)
	default:
		fmt.Fprintf(s.out, "Removed %d from favorites\n", id)
	}
	return nil
}

func (s *Session) insight(ctx context.Context) {
	fmt.Fprintln(s.out, "Analyzing artwork...")
	text, err := s.ctrl.Insight(ctx)
	if err != nil {
		s.renderError(err)
		return
	}
	fmt.Fprintln(s.out, strings.Repeat("-", 80))
	fmt.Fprintln(s.out, "AI INSIGHTS")
	fmt.Fprintln(s.out, text)
	fmt.Fprintln(s.out, strings.Repeat("-", 80))
}

// Render prints the current view
func (s *Session) Render() {
	st := s.ctrl.State()

	switch st.Mode {
	case gallery.ModeGallery:
		s.renderGallery(st)
	case gallery.ModeFavorites:
		fmt.Fprintf(s.out, "FAVORITES (%d)\n", len(st.Items))
		fmt.Fprintln(s.out, strings.Repeat("-", 80))
		if len(st.Items) == 0 {
			fmt.Fprintln(s.out, "No favorites yet.")
			return
		}
		s.renderCards(st.Items)
	case gallery.ModeDetail:
		s.renderDetail(st)
	}
}

func (s *Session) renderGallery(st gallery.State) {
	if st.Query == "" {
		fmt.Fprintln(s.out, "Search the collection to begin.")
		return
	}
	if len(st.AllIDs) == 0 {
		if st.Err == nil {
			fmt.Fprintf(s.out, "No results found for %q.\n", st.Query)
		}
		return
	}

	pages := s.ctrl.PageCount()
	fmt.Fprintf(s.out, "RESULTS for %q: %d artworks, page %d of %d\n", st.Query, len(st.AllIDs), st.CurrentPage+1, pages)
	fmt.Fprintln(s.out, strings.Repeat("-", 80))
	s.renderCards(st.Items)

	var nav []string
	if st.CurrentPage > 0 {
		nav = append(nav, "prev")
	}
	if st.CurrentPage+1 < pages {
		nav = append(nav, "next")
	}
	if len(nav) > 0 {
		fmt.Fprintf(s.out, "[%s]\n", strings.Join(nav, " | "))
	}
}

func (s *Session) renderCards(items []models.ArtworkRecord) {
	for _, item := range items {
		marker := " "
		if s.ctrl.IsFavorite(item.ObjectID) {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s %-9d %s\n", marker, item.ObjectID, orDefault(item.Title, "Untitled"))
		fmt.Fprintf(s.out, "            %s\n", orDefault(item.ArtistDisplayName, "Unknown artist"))
	}
}

func (s *Session) renderDetail(st gallery.State) {
	fmt.Fprintf(s.out, "ARTWORK %d\n", st.CurrentDetailID)
	fmt.Fprintln(s.out, strings.Repeat("-", 80))

	if st.Detail == nil {
		fmt.Fprintln(s.out, "Failed to load artwork details. Type 'back' to return.")
		return
	}

	d := st.Detail
	fmt.Fprintf(s.out, "Title:          %s\n", orDefault(d.Title, "Untitled"))
	fmt.Fprintf(s.out, "Artist:         %s\n", orDefault(d.ArtistDisplayName, "Unknown artist"))
	fmt.Fprintf(s.out, "Date:           %s\n", orDefault(d.ObjectDate, "Date unknown"))
	fmt.Fprintf(s.out, "Medium:         %s\n", orDefault(d.Medium, "Medium unknown"))
	for _, field := range []struct{ label, value string }{
		{"Department:     ", d.Department},
		{"Culture:        ", d.Culture},
		{"Credit:         ", d.CreditLine},
		{"Image:          ", d.PrimaryImage},
		{"More:           ", d.ObjectURL},
	} {
		if field.value != "" {
			fmt.Fprintf(s.out, "%s%s\n", field.label, field.value)
		}
	}

	if s.ctrl.IsFavorite(d.ObjectID) {
		fmt.Fprintln(s.out, "Favorite:       yes")
	} else {
		fmt.Fprintln(s.out, "Favorite:       no")
	}
}

func (s *Session) renderError(err error) {
	var upstream *models.UpstreamError
	var validation *models.ValidationError
	var network *models.NetworkError

	switch {
	case errors.Is(err, gallery.ErrSuperseded):
		return
	case errors.As(err, &validation):
		fmt.Fprintf(s.out, "Error: %s %s\n", validation.Field, validation.Reason)
	case errors.As(err, &upstream) && upstream.RateLimited():
		fmt.Fprintln(s.out, "Error: Rate limit exceeded. Please try again later.")
	case errors.As(err, &upstream) && upstream.Message != "":
		fmt.Fprintf(s.out, "Error: %s\n", upstream.Message)
	case errors.As(err, &network):
		fmt.Fprintln(s.out, "Error: network request failed. Check your connection and try again.")
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}

func parseID(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive number, got %q", arg)
	}
	return n, nil
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
