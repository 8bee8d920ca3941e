package rabbitmq

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/suPer8Hu/focusbot/internal/history"
)

var ErrBadMessage = errors.New("rabbitmq: malformed history message")

func EncodeRecord(rec history.Record) ([]byte, error) {
	return json.Marshal(rec)
}

// DecodeRecord rejects payloads missing any field a thread needs.
func DecodeRecord(body []byte) (history.Record, error) {
	var rec history.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return history.Record{}, errors.Join(ErrBadMessage, err)
	}
	if rec.User == "" || rec.Subject == "" || rec.Message == "" || rec.Reply == "" {
		return history.Record{}, ErrBadMessage
	}
	return rec, nil
}

func strconvMillis(d time.Duration) string {
	if d <= 0 {
		d = time.Second
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}
