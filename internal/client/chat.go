package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

var errEmptyChat = errors.New("response has neither reply nor error")

// Chat posts to /api/chat. Both success and failure bodies come back as a
// ChatResponse; only transport problems and unreadable bodies return an error.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	const op = "POST /api/chat"
	if req.User == "" {
		req.User = Guest
	}

	_, raw, err := c.send(ctx, http.MethodPost, "/api/chat", nil, req)
	if err != nil {
		return ChatResponse{}, err
	}

	var body struct {
		ChatResponse
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ChatResponse{}, &TransportError{Op: op, Err: err}
	}
	out := body.ChatResponse
	if out.Reply == "" && out.Error == "" {
		if body.Detail == "" {
			return ChatResponse{}, &TransportError{Op: op, Err: errEmptyChat}
		}
		out.Error = body.Detail
	}
	return out, nil
}
