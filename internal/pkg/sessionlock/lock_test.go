package sessionlock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	km.Lock("session-a")

	wg.Add(1)
	go func() {
		defer wg.Done()
		km.Lock("session-a")
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		km.Unlock("session-a")
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	km.Unlock("session-a")

	wg.Wait()
	assert.Equal(t, []int{1, 2}, order)
}

func TestLockIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	km.Lock("session-a")

	done := make(chan struct{})
	go func() {
		km.Lock("session-b")
		km.Unlock("session-b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different session should not block")
	}
	km.Unlock("session-a")
}

func TestLockCleansUpEntries(t *testing.T) {
	km := NewKeyedMutex()
	km.Lock("session-a")
	km.Unlock("session-a")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.entries)
}
