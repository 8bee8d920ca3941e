package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Guest is the user value sent by unauthenticated callers.
const Guest = "guest"

type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type HistoryEntry struct {
	ID            string    `json:"id"`
	Subject       string    `json:"subject"`
	Message       string    `json:"message"`
	Reply         string    `json:"reply"`
	Conversation  []Message `json:"conversation,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	FormattedTime string    `json:"formatted_time,omitempty"`
}

// UnmarshalJSON accepts RFC 3339 timestamps as well as zone-less ISO 8601
// ones (read as UTC). A null or empty timestamp leaves it zero.
func (e *HistoryEntry) UnmarshalJSON(b []byte) error {
	type plain HistoryEntry
	aux := struct {
		*plain
		Timestamp isoTime `json:"timestamp"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Timestamp = time.Time(aux.Timestamp)
	return nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

type isoTime time.Time

func (t *isoTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = isoTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		*t = isoTime{}
		return nil
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*t = isoTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

type ChatRequest struct {
	Message             string `json:"message"`
	Subject             string `json:"subject"`
	User                string `json:"user"`
	ConversationStarted bool   `json:"conversation_started"`
}

// ChatResponse is decoded whatever the status; exactly one field is normally set.
type ChatResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error"`
}
