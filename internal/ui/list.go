package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/roastx/internal/models"
)

var _ list.Item = historyItem{}

// historyItem wraps [models.HistoryEntry] to implement [list.Item].
type historyItem struct {
	entry models.HistoryEntry
}

func (i historyItem) FilterValue() string { return i.entry.Partner + " " + i.entry.TimeRange.String() }

func (i historyItem) Title() string {
	if i.entry.Duo {
		return fmt.Sprintf("Duo with %s", i.entry.Partner)
	}
	return "Solo roast"
}

func (i historyItem) Description() string {
	desc := i.entry.TimeRange.String()
	if !i.entry.CreatedAt.IsZero() {
		desc = fmt.Sprintf("%s • %s", desc, i.entry.CreatedAt.Format("Jan 2, 2006 15:04"))
	}
	return fmt.Sprintf("%s • #%s", desc, i.entry.ID)
}

func historyItems(entries []models.HistoryEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e}
	}
	return items
}
