package client

import (
	"context"
	"net/http"
	"net/url"
	"sort"
)

// ListHistory returns the user's entries, most recent first.
func (c *Client) ListHistory(ctx context.Context, user string) ([]HistoryEntry, error) {
	var out struct {
		History []HistoryEntry `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/history", userQuery(user), nil, &out); err != nil {
		return nil, err
	}
	SortHistory(out.History)
	return out.History, nil
}

// SortHistory orders entries by timestamp, newest first; ties keep their order.
func SortHistory(entries []HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

func (c *Client) DeleteHistory(ctx context.Context, id, user string) error {
	return c.do(ctx, http.MethodDelete, "/api/history/"+url.PathEscape(id), userQuery(user), nil, nil)
}

func (c *Client) ClearHistory(ctx context.Context, user string) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/history", userQuery(user), nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}
