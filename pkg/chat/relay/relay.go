package relay

import (
	"context"
	"errors"

	"signaware-be/pkg/llm"
)

// ErrClientGone reports that the downstream consumer stopped accepting
// chunks, e.g. the HTTP client disconnected mid-stream.
var ErrClientGone = errors.New("client disconnected")

// Status is the terminal outcome of a relayed stream.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Sink receives streamed content increments. Chunk returning an error stops
// the relay and cancels the upstream request.
type Sink interface {
	Chunk(content string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(content string) error

func (f SinkFunc) Chunk(content string) error {
	return f(content)
}

// Relay pumps provider chunks into a sink while accumulating the full
// response. A small buffer decouples the upstream reader from slow sinks.
type Relay struct {
	bufferSize int
}

func New(bufferSize int) *Relay {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &Relay{bufferSize: bufferSize}
}

// Run consumes the chunk channel until it finishes, forwarding content to
// the sink. It returns whatever content was delivered, the terminal status,
// and the error that ended the stream (nil when completed).
//
// Cancelling ctx aborts the stream with StatusCancelled. A sink failure also
// cancels: the caller's provider context is derived from ctx, so returning
// promptly tears the upstream request down.
func (r *Relay) Run(ctx context.Context, chunks <-chan llm.StreamChunk, sink Sink) (string, Status, error) {
	buffered := make(chan llm.StreamChunk, r.bufferSize)
	go func() {
		defer close(buffered)
		for chunk := range chunks {
			select {
			case buffered <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	var content string
	for {
		select {
		case <-ctx.Done():
			// A deadline is the model taking too long, not the client
			// walking away; it fails the turn instead of cancelling it.
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return content, StatusFailed, ctx.Err()
			}
			return content, StatusCancelled, ctx.Err()
		case chunk, ok := <-buffered:
			if !ok {
				// Provider closed without a done marker.
				return content, StatusCompleted, nil
			}
			if chunk.Err != nil {
				if errors.Is(chunk.Err, context.Canceled) {
					return content, StatusCancelled, chunk.Err
				}
				return content, StatusFailed, chunk.Err
			}
			if chunk.Content != "" {
				if err := sink.Chunk(chunk.Content); err != nil {
					return content, StatusCancelled, errors.Join(ErrClientGone, err)
				}
				content += chunk.Content
			}
			if chunk.Done {
				return content, StatusCompleted, nil
			}
		}
	}
}
