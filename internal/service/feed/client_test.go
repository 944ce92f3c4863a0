package feed

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestClientStatusConcurrentWithClose(t *testing.T) {
	c := NewClient("key", "wss://example.invalid/feed", []string{"TCS"}, time.Millisecond, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = c.IsConnected()
				_ = c.Close()
			}
		}()
	}
	wg.Wait()

	if c.IsConnected() {
		t.Fatal("closed client must not report connected")
	}
	if err := c.Subscribe(context.Background()); err == nil {
		t.Fatal("subscribe on a closed client must fail")
	}
}
