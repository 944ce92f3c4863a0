package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	"github.com/annuu1/autozonexnxt-sub000/internal/service/feed"
)

type streamPair struct {
	ticks chan models.Tick
	errs  chan error
}

// fakeStream hands out a fresh channel pair per Read call.
type fakeStream struct {
	mu         sync.Mutex
	pairs      []streamPair
	reconnects int
}

func (s *fakeStream) Connect(context.Context) error   { return nil }
func (s *fakeStream) Subscribe(context.Context) error { return nil }
func (s *fakeStream) Close() error                    { return nil }
func (s *fakeStream) IsConnected() bool               { return true }

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *fakeStream) Read(context.Context) (<-chan models.Tick, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pairs[0]
	if len(s.pairs) > 1 {
		s.pairs = s.pairs[1:]
	}
	return p.ticks, p.errs
}

func (s *fakeStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func TestFeedCollectorAppliesTicks(t *testing.T) {
	pair := streamPair{ticks: make(chan models.Tick, 1), errs: make(chan error)}
	st := &fakeStream{pairs: []streamPair{pair}}
	table := feed.NewSnapshotTable()
	c := NewFeedCollector(st, table, nopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	pair.ticks <- models.Tick{Symbol: "TCS", Price: 101.5, At: time.Now()}
	waitForSnapshot(t, table, "TCS")
}

func TestFeedCollectorRecoversAfterReadLoopDies(t *testing.T) {
	first := streamPair{ticks: make(chan models.Tick), errs: make(chan error)}
	second := streamPair{ticks: make(chan models.Tick, 1), errs: make(chan error)}
	st := &fakeStream{pairs: []streamPair{first, second}}
	table := feed.NewSnapshotTable()
	c := NewFeedCollector(st, table, nopMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The read loop dies without delivering an error: both channels close.
	// The collector must notice, reconnect once, and resume on the fresh
	// channels instead of selecting on the closed ones forever.
	close(first.errs)
	close(first.ticks)
	second.ticks <- models.Tick{Symbol: "INFY", Price: 1500, At: time.Now()}

	waitForSnapshot(t, table, "INFY")
	if n := st.reconnectCount(); n != 1 {
		t.Fatalf("reconnects = %d, want 1", n)
	}
}

func waitForSnapshot(t *testing.T, table *feed.SnapshotTable, symbol string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap, ok := table.Snapshot(symbol); ok && snap.LastTradedPrice != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no snapshot for %s", symbol)
}
