package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/roastx/internal/shared"
)

// TimeRange is the historical window a roast is computed over.
type TimeRange int

const (
	PastMonth TimeRange = iota
	PastSixMonths
	PastYear
)

// DefaultTimeRange is used when the session has no valid selection.
const DefaultTimeRange = PastYear

// TimeRanges lists every selectable [TimeRange] in radio order.
func TimeRanges() []TimeRange {
	return []TimeRange{PastMonth, PastSixMonths, PastYear}
}

// ParseTimeRange reads the decimal form written by [TimeRange.Value].
func ParseTimeRange(s string) (TimeRange, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultTimeRange, fmt.Errorf("%w: time range %q", shared.ErrInvalidInput, s)
	}
	tr := TimeRange(n)
	if !tr.Valid() {
		return DefaultTimeRange, fmt.Errorf("%w: time range %d out of range", shared.ErrInvalidInput, n)
	}
	return tr, nil
}

func (t TimeRange) Valid() bool {
	return t >= PastMonth && t <= PastYear
}

// Value is the form and query string representation ("0", "1", "2").
func (t TimeRange) Value() string {
	return strconv.Itoa(int(t))
}

// String returns the label shown next to the radio option.
func (t TimeRange) String() string {
	switch t {
	case PastMonth:
		return "Past Month"
	case PastSixMonths:
		return "Past 6 Months"
	case PastYear:
		return "Past Year"
	default:
		return "Unknown"
	}
}

// Term is the streaming service name for the window.
func (t TimeRange) Term() string {
	switch t {
	case PastMonth:
		return "short_term"
	case PastSixMonths:
		return "medium_term"
	default:
		return "long_term"
	}
}

// Entry is one ranked artist or track card.
type Entry struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
	Desc   string `json:"desc,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// Side is one user's half of a [Comparison].
type Side struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Sub   string `json:"sub,omitempty"`
}

// Comparison puts two users' picks side by side with a shared description.
type Comparison struct {
	Rank  int    `json:"rank"`
	Left  Side   `json:"left"`
	Right Side   `json:"right"`
	Desc  string `json:"desc,omitempty"`
}

// Ranking holds either solo entries or duo comparisons, never both.
type Ranking struct {
	Entries     []Entry      `json:"entries,omitempty"`
	Comparisons []Comparison `json:"comparisons,omitempty"`
}

func (r Ranking) Duo() bool   { return len(r.Comparisons) > 0 }
func (r Ranking) Empty() bool { return r.Len() == 0 }

func (r Ranking) Len() int {
	if r.Duo() {
		return len(r.Comparisons)
	}
	return len(r.Entries)
}

// Slice returns items [from, to), clamped to the ranking length.
func (r Ranking) Slice(from, to int) Ranking {
	clamp := func(n, max int) int {
		if n < 0 {
			return 0
		}
		if n > max {
			return max
		}
		return n
	}

	if r.Duo() {
		n := len(r.Comparisons)
		from, to = clamp(from, n), clamp(to, n)
		if from >= to {
			return Ranking{}
		}
		return Ranking{Comparisons: append([]Comparison(nil), r.Comparisons[from:to]...)}
	}

	n := len(r.Entries)
	from, to = clamp(from, n), clamp(to, n)
	if from >= to {
		return Ranking{}
	}
	return Ranking{Entries: append([]Entry(nil), r.Entries[from:to]...)}
}

// Renumber returns a copy ranked from start upward.
func (r Ranking) Renumber(start int) Ranking {
	out := Ranking{}
	for i, e := range r.Entries {
		e.Rank = start + i
		out.Entries = append(out.Entries, e)
	}
	for i, c := range r.Comparisons {
		c.Rank = start + i
		out.Comparisons = append(out.Comparisons, c)
	}
	return out
}

// Genres is the genre slide payload. Partner is only set for duo records.
type Genres struct {
	Genres  []string `json:"genres"`
	Partner []string `json:"partner,omitempty"`
	Desc    string   `json:"desc,omitempty"`
	Duo     bool     `json:"duo"`
}

func (g Genres) Empty() bool {
	return len(g.Genres) == 0 && len(g.Partner) == 0 && g.Desc == ""
}

// Quirky is the single odd pick of a roast.
//
// A solo pick sets Entry, a duo pick sets Comparison. Either may be nil when
// the remote only returned a description.
type Quirky struct {
	Entry      *Entry      `json:"entry,omitempty"`
	Comparison *Comparison `json:"comparison,omitempty"`
	Desc       string      `json:"desc,omitempty"`
}

func (q Quirky) Empty() bool {
	return q.Entry == nil && q.Comparison == nil && q.Desc == ""
}

// Summary wraps up a roast. Narrative is markdown.
//
// Duo summaries carry the second user in Partner and share one Narrative.
type Summary struct {
	Artists   []string `json:"artists"`
	Tracks    []string `json:"tracks"`
	Genres    []string `json:"genres"`
	Quirky    string   `json:"quirky,omitempty"`
	Narrative string   `json:"narrative,omitempty"`
	Partner   *Summary `json:"partner,omitempty"`
}

func (s Summary) Duo() bool { return s.Partner != nil }

func (s Summary) Empty() bool {
	return len(s.Artists) == 0 && len(s.Tracks) == 0 && len(s.Genres) == 0 &&
		s.Quirky == "" && s.Narrative == "" && (s.Partner == nil || s.Partner.Empty())
}

// Roast bundles every slide of one record, used for export.
type Roast struct {
	RecordID  string    `json:"record_id"`
	TimeRange TimeRange `json:"time_range"`
	Duo       bool      `json:"duo"`
	Partner   string    `json:"partner,omitempty"`
	Artists   Ranking   `json:"artists"`
	Tracks    Ranking   `json:"tracks"`
	Genres    Genres    `json:"genres"`
	Quirky    Quirky    `json:"quirky"`
	Summary   Summary   `json:"summary"`
}

// Title is the heading used by exports.
func (r Roast) Title() string {
	if r.Duo && r.Partner != "" {
		return fmt.Sprintf("Duo roast with %s (%s)", r.Partner, r.TimeRange)
	}
	return fmt.Sprintf("Roast (%s)", r.TimeRange)
}

// HistoryEntry is one past record as listed by the remote API.
type HistoryEntry struct {
	ID        string    `json:"id"`
	TimeRange TimeRange `json:"time_range"`
	Duo       bool      `json:"duo"`
	Partner   string    `json:"partner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DuoRequest is a pending invitation to compare with another user.
type DuoRequest struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	TimeRange TimeRange `json:"time_range"`
}

type DuoRequests struct {
	Incoming []DuoRequest `json:"incoming"`
	Outgoing []DuoRequest `json:"outgoing"`
}

func (d DuoRequests) Empty() bool {
	return len(d.Incoming) == 0 && len(d.Outgoing) == 0
}
