package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
	"github.com/tidwall/gjson"
)

// Payload shapes are assumed, not validated. Each parser reads what it can
// and leaves the rest empty; only bodies that are not JSON at all are errors.

func parseBody(body []byte) (gjson.Result, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: body is not JSON", shared.ErrMalformedResponse)
	}
	return gjson.ParseBytes(body), nil
}

// str returns the first non-empty string among paths on r.
func str(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// list returns the first array among keys on r, or r itself when it is an array.
func list(r gjson.Result, keys ...string) []gjson.Result {
	if r.IsArray() {
		return r.Array()
	}
	for _, k := range keys {
		if v := r.Get(k); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

// names reads a list of names. Items may be plain strings or objects with a
// name field. A comma separated string is split.
func names(r gjson.Result) []string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if r.Type == gjson.String {
		var out []string
		for _, part := range strings.Split(r.String(), ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var out []string
	for _, item := range r.Array() {
		var s string
		if item.IsObject() {
			s = str(item, "name", "title")
		} else {
			s = strings.TrimSpace(item.String())
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseEntry(r gjson.Result, rank int) models.Entry {
	if n := r.Get("rank"); n.Type == gjson.Number && n.Int() > 0 {
		rank = int(n.Int())
	}
	return models.Entry{
		Rank:   rank,
		Name:   str(r, "name", "title"),
		Image:  str(r, "image", "img", "image_url"),
		Desc:   str(r, "desc", "description"),
		Artist: str(r, "artist", "artists.0.name", "artists.0"),
	}
}

func parseComparison(r gjson.Result, rank int) models.Comparison {
	if n := r.Get("rank"); n.Type == gjson.Number && n.Int() > 0 {
		rank = int(n.Int())
	}
	return models.Comparison{
		Rank:  rank,
		Left:  models.Side{Name: str(r, "name1"), Image: str(r, "img1", "image1"), Sub: str(r, "sub1")},
		Right: models.Side{Name: str(r, "name2"), Image: str(r, "img2", "image2"), Sub: str(r, "sub2")},
		Desc:  str(r, "desc", "description"),
	}
}

// parseRanking reads an artists or tracks payload in the layout duo selects.
func parseRanking(body []byte, key string, duo bool) (models.Ranking, error) {
	root, err := parseBody(body)
	if err != nil {
		return models.Ranking{}, err
	}

	items := list(root, key, "items", "data", "results")
	var out models.Ranking
	for i, item := range items {
		if !item.IsObject() {
			continue
		}
		if duo {
			out.Comparisons = append(out.Comparisons, parseComparison(item, i+1))
		} else {
			out.Entries = append(out.Entries, parseEntry(item, i+1))
		}
	}
	return out, nil
}

func parseGenres(body []byte, duo bool) (models.Genres, error) {
	root, err := parseBody(body)
	if err != nil {
		return models.Genres{}, err
	}

	g := models.Genres{Duo: duo, Desc: str(root, "desc", "description")}
	if root.IsArray() {
		g.Genres = names(root)
		return g, nil
	}

	if duo {
		g.Genres = names(firstExisting(root, "genres1", "user1.genres"))
		g.Partner = names(firstExisting(root, "genres2", "user2.genres"))
		return g, nil
	}

	g.Genres = names(root.Get("genres"))
	return g, nil
}

func parseQuirky(body []byte, duo bool) (models.Quirky, error) {
	root, err := parseBody(body)
	if err != nil {
		return models.Quirky{}, err
	}

	if root.Type == gjson.String {
		return models.Quirky{Desc: strings.TrimSpace(root.String())}, nil
	}
	if root.IsArray() {
		arr := root.Array()
		if len(arr) == 0 {
			return models.Quirky{}, nil
		}
		root = arr[0]
	}
	if obj := root.Get("quirky"); obj.IsObject() {
		root = obj
	}
	if !root.IsObject() {
		return models.Quirky{}, nil
	}

	q := models.Quirky{Desc: str(root, "desc", "description")}
	if duo {
		c := parseComparison(root, 1)
		if c.Left.Name != "" || c.Right.Name != "" {
			q.Comparison = &c
		}
		return q, nil
	}

	e := parseEntry(root, 1)
	if e.Name != "" {
		q.Entry = &e
	}
	return q, nil
}

func summarySide(r gjson.Result) models.Summary {
	quirky := r.Get("quirky")
	q := strings.TrimSpace(quirky.String())
	if quirky.IsObject() {
		q = str(quirky, "name", "title")
	}
	return models.Summary{
		Artists: names(r.Get("artists")),
		Tracks:  names(r.Get("tracks")),
		Genres:  names(r.Get("genres")),
		Quirky:  q,
	}
}

func parseSummary(body []byte, duo bool) (models.Summary, error) {
	root, err := parseBody(body)
	if err != nil {
		return models.Summary{}, err
	}
	if root.Type == gjson.String {
		return models.Summary{Narrative: strings.TrimSpace(root.String())}, nil
	}
	if !root.IsObject() {
		return models.Summary{}, nil
	}

	narrative := str(root, "desc", "narrative", "description")
	if duo {
		left := summarySide(root.Get("user1"))
		right := summarySide(root.Get("user2"))
		left.Narrative = narrative
		left.Partner = &right
		return left, nil
	}

	s := summarySide(root)
	s.Narrative = narrative
	return s, nil
}

func parseHistory(body []byte) ([]models.HistoryEntry, error) {
	root, err := parseBody(body)
	if err != nil {
		return nil, err
	}

	var out []models.HistoryEntry
	for _, item := range list(root, "history", "wrapped", "items") {
		id := str(item, "id", "pk")
		if id == "" {
			continue
		}
		partner := str(item, "user2", "partner")
		out = append(out, models.HistoryEntry{
			ID:        id,
			TimeRange: parseTerm(firstExisting(item, "termselection", "time_range", "term")),
			Duo:       truthy(firstExisting(item, "isDuo", "duo")) || partner != "",
			Partner:   partner,
			CreatedAt: parseTime(str(item, "datetimecreated", "created_at", "created")),
		})
	}
	return out, nil
}

func parseRequests(body []byte) (models.DuoRequests, error) {
	root, err := parseBody(body)
	if err != nil {
		return models.DuoRequests{}, err
	}

	read := func(key string) []models.DuoRequest {
		var out []models.DuoRequest
		for _, item := range root.Get(key).Array() {
			out = append(out, models.DuoRequest{
				ID:        str(item, "id", "pk"),
				Username:  str(item, "username", "user", "from", "to"),
				TimeRange: parseTerm(firstExisting(item, "termselection", "time_range", "term")),
			})
		}
		return out
	}

	return models.DuoRequests{Incoming: read("incoming"), Outgoing: read("outgoing")}, nil
}

// parseCreated reads the new record id under wrapperKey, falling back to a bare id.
func parseCreated(body []byte, wrapperKey string) (string, error) {
	root, err := parseBody(body)
	if err != nil {
		return "", err
	}
	id := str(root, wrapperKey+".id", "id")
	if id == "" || id == models.PendingRecordID {
		return "", fmt.Errorf("%w: response has no %s id", shared.ErrMalformedResponse, wrapperKey)
	}
	return id, nil
}

func firstExisting(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return r.Int() != 0
	case gjson.String:
		b, _ := strconv.ParseBool(r.String())
		return b
	default:
		return false
	}
}

// parseTerm accepts the numeric selection or a term name.
func parseTerm(r gjson.Result) models.TimeRange {
	if !r.Exists() {
		return models.DefaultTimeRange
	}
	s := strings.TrimSpace(r.String())
	for _, tr := range models.TimeRanges() {
		if s == tr.Term() {
			return tr
		}
	}
	tr, err := models.ParseTimeRange(s)
	if err != nil {
		return models.DefaultTimeRange
	}
	return tr
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
