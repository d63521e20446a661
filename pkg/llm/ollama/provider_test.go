package ollama

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signaware-be/pkg/llm"
)

func TestChatStream_EmitsDeltasThenDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hel"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":"lo"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "deepseek-r1:8b")
	chunks, err := provider.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	var content string
	var done bool
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		content += chunk.Content
		done = done || chunk.Done
	}

	assert.Equal(t, "Hello", content)
	assert.True(t, done)
}

func TestChatStream_CancelWithoutDrainingReleasesReader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for {
			if _, err := w.Write([]byte(`{"message":{"role":"assistant","content":"tok"},"done":false}` + "\n")); err != nil {
				return
			}
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(2 * time.Millisecond):
			}
		}
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "deepseek-r1:8b")
	before := runtime.NumGoroutine()

	// A disconnecting client cancels and stops reading mid-stream. The
	// reader goroutine must still exit and release the response body.
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		chunks, err := provider.ChatStream(ctx, []llm.Message{{Role: "user", Content: "hi"}})
		require.NoError(t, err)

		<-chunks
		cancel()
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 2*time.Second, 10*time.Millisecond, "reader goroutines must exit after cancellation")
}
