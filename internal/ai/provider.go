package ai

import (
	"context"
	"errors"
	"io"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Provider is a text-generation backend. messages are oldest first and may
// start with a system message.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

var ErrEmptyReply = errors.New("ai: empty reply")

// CloseProvider closes p if it holds resources; HTTP-only providers are no-ops.
func CloseProvider(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
