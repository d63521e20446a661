package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signaware-be/pkg/llm"
)

func feed(chunks ...llm.StreamChunk) <-chan llm.StreamChunk {
	ch := make(chan llm.StreamChunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

type collectingSink struct {
	received []string
	failAt   int // fail on the nth call (1-based); 0 never fails
}

func (s *collectingSink) Chunk(content string) error {
	if s.failAt > 0 && len(s.received)+1 >= s.failAt {
		return errors.New("write: broken pipe")
	}
	s.received = append(s.received, content)
	return nil
}

func TestRun_CompletesAndAccumulates(t *testing.T) {
	sink := &collectingSink{}
	r := New(4)

	content, status, err := r.Run(context.Background(), feed(
		llm.StreamChunk{Content: "Hel"},
		llm.StreamChunk{Content: "lo"},
		llm.StreamChunk{Done: true},
	), sink)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.Equal(t, "Hello", content)
	assert.Equal(t, []string{"Hel", "lo"}, sink.received)
}

func TestRun_UpstreamErrorFails(t *testing.T) {
	sink := &collectingSink{}
	r := New(4)

	content, status, err := r.Run(context.Background(), feed(
		llm.StreamChunk{Content: "partial"},
		llm.StreamChunk{Err: errors.New("model crashed")},
	), sink)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, "partial", content)
}

func TestRun_SinkFailureIsClientGone(t *testing.T) {
	sink := &collectingSink{failAt: 2}
	r := New(4)

	content, status, err := r.Run(context.Background(), feed(
		llm.StreamChunk{Content: "one"},
		llm.StreamChunk{Content: "two"},
		llm.StreamChunk{Done: true},
	), sink)

	require.ErrorIs(t, err, ErrClientGone)
	assert.Equal(t, StatusCancelled, status)
	// The failed chunk was never delivered, so it is not part of content.
	assert.Equal(t, "one", content)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	open := make(chan llm.StreamChunk)
	defer close(open)

	r := New(4)
	_, status, err := r.Run(ctx, open, &collectingSink{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, status)
}

func TestRun_CancelledUpstreamErrMapsToCancelled(t *testing.T) {
	r := New(4)
	_, status, err := r.Run(context.Background(), feed(
		llm.StreamChunk{Err: context.Canceled},
	), &collectingSink{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, status)
}

func TestRun_DeadlineExceededFailsTurn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// Upstream never produces a chunk within the deadline.
	stalled := make(chan llm.StreamChunk)
	defer close(stalled)

	r := New(4)
	_, status, err := r.Run(ctx, stalled, &collectingSink{})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusFailed, status, "a model timeout is an upstream failure, not a client cancellation")
}
