package session

import (
	"github.com/suPer8Hu/focusbot/internal/client"
)

const (
	PlaceholderTitle = "No chats yet"
	PlaceholderHint  = "Click to start chatting"
	EmptySummary     = "No chats yet."
)

// SummaryItem is one row of the history overview. Entry is nil for a
// subject without history.
type SummaryItem struct {
	Subject string
	Entry   *client.HistoryEntry
}

func (i SummaryItem) HasHistory() bool { return i.Entry != nil }

type Summary struct {
	Items []SummaryItem
	// Empty is set when no listed subject has any history.
	Empty bool
}

// Summarize keeps the latest entry per subject (the first one wins a tie)
// and lists subjects with history before those without, each group in
// subject-list order. Entries for unlisted subjects are ignored.
func Summarize(history []client.HistoryEntry, subjects []string) Summary {
	latest := make(map[string]int, len(subjects))
	for i := range history {
		e := &history[i]
		j, ok := latest[e.Subject]
		if !ok || e.Timestamp.After(history[j].Timestamp) {
			latest[e.Subject] = i
		}
	}

	with := make([]SummaryItem, 0, len(subjects))
	without := make([]SummaryItem, 0, len(subjects))
	for _, name := range subjects {
		if i, ok := latest[name]; ok {
			entry := history[i]
			with = append(with, SummaryItem{Subject: name, Entry: &entry})
			continue
		}
		without = append(without, SummaryItem{Subject: name})
	}
	return Summary{
		Items: append(with, without...),
		Empty: len(with) == 0,
	}
}
