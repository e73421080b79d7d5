package wizard

import (
	"fmt"
	"strings"

	"github.com/desertthunder/roastx/internal/shared"
)

// Slide is one step of the roast walkthrough.
type Slide int

const (
	Title Slide = iota
	Artists
	Artists2
	Genres
	Tracks
	Tracks2
	Quirky
	Summary
	Dashboard
)

// PageSize is how many ranked cards one slide shows.
const PageSize = 2

var slideNames = map[Slide]string{
	Title:     "title",
	Artists:   "artists",
	Artists2:  "artists2",
	Genres:    "genres",
	Tracks:    "tracks",
	Tracks2:   "tracks2",
	Quirky:    "quirky",
	Summary:   "summary",
	Dashboard: "dashboard",
}

// Slides returns the eight walkthrough slides in order.
func Slides() []Slide {
	return []Slide{Title, Artists, Artists2, Genres, Tracks, Tracks2, Quirky, Summary}
}

// ParseSlide reads a slide name as it appears in a URL.
func ParseSlide(name string) (Slide, error) {
	name = strings.Trim(strings.ToLower(name), "/ ")
	for s, n := range slideNames {
		if n == name && s != Dashboard {
			return s, nil
		}
	}
	return Title, fmt.Errorf("%w: unknown slide %q", shared.ErrInvalidArgument, name)
}

func (s Slide) String() string {
	if n, ok := slideNames[s]; ok {
		return n
	}
	return "unknown"
}

// Next returns the slide that follows s. Summary leads back to the dashboard.
func (s Slide) Next() Slide {
	if s < Title || s >= Summary {
		return Dashboard
	}
	return s + 1
}

// Path is the URL the slide is rendered at.
func (s Slide) Path() string {
	if s == Dashboard {
		return "/dashboard"
	}
	return "/wrapped/" + s.String()
}

// NextPath is where the slide's advance button posts.
func (s Slide) NextPath() string {
	return s.Path() + "/next"
}

// Heading is the slide's title line.
func (s Slide) Heading() string {
	switch s {
	case Title:
		return "turning up the heat..."
	case Artists:
		return "Top Artists"
	case Artists2:
		return "More Top Artists"
	case Genres:
		return "Top Genres"
	case Tracks:
		return "Top Tracks"
	case Tracks2:
		return "More Top Tracks"
	case Quirky:
		return "Quirkiest Pick"
	case Summary:
		return "Summary"
	default:
		return ""
	}
}

// LoadingText is shown while the slide has no data.
func (s Slide) LoadingText() string {
	switch s {
	case Artists, Artists2:
		return "Loading artists..."
	case Tracks, Tracks2:
		return "Loading tracks..."
	case Genres:
		return "Loading genres..."
	case Quirky:
		return "Loading quirky pick..."
	case Summary:
		return "Loading summary..."
	default:
		return "Loading..."
	}
}

// Fetches reports whether entering the slide calls the remote API.
func (s Slide) Fetches() bool {
	switch s {
	case Artists, Genres, Tracks, Quirky, Summary:
		return true
	default:
		return false
	}
}
