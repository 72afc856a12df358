// Package ai asks a language model for project changes. Replies are plain
// text; the patch package turns them into file patches.
package ai

import (
	"context"
	"errors"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client completes a chat.
type Client interface {
	// Complete returns the full reply to messages. System messages may appear
	// anywhere; backends that take a single instruction merge them.
	Complete(ctx context.Context, messages []Message) (string, error)
	Provider() string
	Model() string
}

// ErrDisabled is returned by New when the provider is "none".
var ErrDisabled = errors.New("ai provider disabled")

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
