package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vterm/internal/config"
)

func TestPruneHistory(t *testing.T) {
	long := strings.Repeat("é", 600)
	history := []Message{
		{Role: RoleUser, Content: "dropped"},
		{Role: RoleUser, Content: long},
		{Role: RoleAssistant, Content: "Added a button.\n# File: a.js\n```js\nx()\n```"},
		{Role: RoleAssistant, Content: "```js\nonly code\n```"},
		{Role: RoleAssistant, Content: "Tweaked styles. ```css\nbody{}\n```"},
		{Role: RoleAssistant, Content: "#file: b.css\n```css\n```"},
		{Role: RoleUser, Content: "short"},
	}

	got := PruneHistory(history, 6)
	require.Len(t, got, 6)
	assert.Equal(t, []rune(long)[:500], []rune(got[0].Content))
	assert.Equal(t, "Added a button.", got[1].Content)
	assert.Equal(t, "Project updated.", got[2].Content)
	assert.Equal(t, "Tweaked styles.", got[3].Content)
	assert.Equal(t, "Project updated.", got[4].Content)
	assert.Equal(t, Message{Role: RoleUser, Content: "short"}, got[5])

	assert.Nil(t, PruneHistory(history, 0))
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages(
		[]Message{{Role: RoleAssistant, Content: "Done."}},
		Workspace{Files: []string{"a.js", "b.css"}},
		"add a footer",
		6,
	)
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "# File: filename.ext")
	assert.Equal(t, "WORKSPACE: a.js, b.css\nACTIVE: None", msgs[1].Content)
	assert.Equal(t, Message{Role: RoleUser, Content: "add a footer"}, msgs[3])

	assert.Equal(t, "WORKSPACE: \nACTIVE: a.js", Workspace{Active: "a.js"}.String())
}

func TestDisplayText(t *testing.T) {
	tests := []struct {
		reply string
		want  string
	}{
		{"Done.\n# File: a.js\n```js\nx\n```", "Done."},
		{"Updated it. FILE: a.js\nx", "Updated it."},
		{"Here:\n```py\nprint(1)\n```", "Here:"},
		{"```py\nprint(1)\n```", "Generated system module instructions."},
		{"# File: a.js\n```js\nx\n```", "Architecting solution..."},
		{"Just an answer.", "Just an answer."},
		{"   ", "Architecting solution..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayText(tt.reply), "reply %q", tt.reply)
	}
}

func TestIsRetryable(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, IsRetryable(&APIError{StatusCode: code}), "status %d", code)
	}
	assert.False(t, IsRetryable(&APIError{StatusCode: 400}))
	assert.False(t, IsRetryable(&APIError{StatusCode: 404, Message: "timeout in name"}))
	assert.True(t, IsRetryable(fmt.Errorf("wrap: %w", &APIError{StatusCode: 503})))
	assert.True(t, IsRetryable(errors.New("dial tcp: connection refused")))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("invalid request")))
	assert.False(t, IsRetryable(nil))
}

func TestCalculateBackoff(t *testing.T) {
	d := CalculateBackoff(100*time.Millisecond, 2, time.Second)
	assert.GreaterOrEqual(t, d, 400*time.Millisecond)
	assert.Less(t, d, 500*time.Millisecond)

	capped := CalculateBackoff(time.Second, 10, 2*time.Second)
	assert.GreaterOrEqual(t, capped, 2*time.Second)
	assert.LessOrEqual(t, capped, 2500*time.Millisecond)

	assert.Zero(t, CalculateBackoff(0, 3, time.Second))
}

func TestWithRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, RetryDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	text, err := withRetry(context.Background(), "test", cfg, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &APIError{StatusCode: 429}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = withRetry(context.Background(), "test", cfg, func(context.Context) (string, error) {
		calls++
		return "", &APIError{StatusCode: 401, Message: "bad key"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	calls = 0
	_, err = withRetry(context.Background(), "test", cfg, func(context.Context) (string, error) {
		calls++
		return "", &APIError{StatusCode: 503}
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (3) exceeded")
	assert.Equal(t, 4, calls)
}

func TestToGeminiContents(t *testing.T) {
	system, contents := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "rules"},
		{Role: RoleSystem, Content: "WORKSPACE: a.js"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "Done."},
	})
	assert.Equal(t, "rules\n\nWORKSPACE: a.js", system)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig().AI

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Provider())
	assert.Equal(t, config.DefaultOllamaModel, c.Model())

	cfg.Provider = "none"
	_, err = New(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrDisabled)

	cfg.Provider = "gemini"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err, "gemini needs a key")
}
