package gallery

import (
	"slices"

	"github.com/lehigh-university-libraries/metgallery/internal/models"
)

// Mode is the view the controller is currently presenting
type Mode int

const (
	ModeGallery Mode = iota
	ModeFavorites
	ModeDetail
)

func (m Mode) String() string {
	switch m {
	case ModeGallery:
		return "gallery"
	case ModeFavorites:
		return "favorites"
	case ModeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// State is a snapshot of the result set and view
type State struct {
	Query           string
	AllIDs          []int
	CurrentPage     int
	Mode            Mode
	CurrentDetailID int

	// Items are the cards of the current gallery page or the favorites list
	Items []models.ArtworkRecord
	// Detail is set once the detail record has loaded
	Detail *models.ArtworkRecord
	// Err is the last user-visible failure
	Err error
}

func (s State) clone() State {
	out := s
	out.AllIDs = slices.Clone(s.AllIDs)
	out.Items = slices.Clone(s.Items)
	if s.Detail != nil {
		detail := *s.Detail
		out.Detail = &detail
	}
	return out
}
