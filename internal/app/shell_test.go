package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/sentiscope/internal/history"
	"github.com/spacesedan/sentiscope/internal/terminal"
)

func TestRunShell(t *testing.T) {
	h := newHarness(t, "I love this product\nI hate waiting\n:history\n:clear\ny\n:bogus\n:quit\nnever read\n")

	require.NoError(t, h.app.RunShell(context.Background(), h.input, h.out))

	out := h.out.String()
	assert.Contains(t, out, "Sentiment:  POSITIVE")
	assert.Contains(t, out, "Sentiment:  NEGATIVE")
	assert.Contains(t, out, history.ConfirmClearPrompt)
	assert.Contains(t, out, terminal.EmptyHistoryMessage)
	assert.Contains(t, out, "Unknown command :bogus")
	assert.Equal(t, int32(2), h.classifier.calls.Load())
	assert.Empty(t, h.app.History())
}

func TestRunShellStopsAtEOF(t *testing.T) {
	h := newHarness(t, ":reset")
	require.NoError(t, h.app.RunShell(context.Background(), h.input, h.out))
	assert.Contains(t, h.out.String(), "Ready for another analysis.")
}

func TestRunShellUsage(t *testing.T) {
	h := newHarness(t, ":view\n:delete\n:search\n")
	require.NoError(t, h.app.RunShell(context.Background(), h.input, h.out))

	out := h.out.String()
	assert.Contains(t, out, "usage: :view ID")
	assert.Contains(t, out, "usage: :delete ID")
	assert.Contains(t, out, "usage: :search TEXT")
}
