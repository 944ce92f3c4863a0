package usecase

import (
	"context"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/internal/service/feed"
)

// TickStream is the minimal market stream interface the collector needs.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// FeedCollector streams ticks from the broker feed into the snapshot
// table. Used when the feed backend is "websocket"; the Kafka backend
// uses TicksHandler instead.
type FeedCollector struct {
	stream    TickStream
	snapshots *feed.SnapshotTable
	metrics   domrepo.Metrics
}

func NewFeedCollector(stream TickStream, snapshots *feed.SnapshotTable, metrics domrepo.Metrics) *FeedCollector {
	return &FeedCollector{stream: stream, snapshots: snapshots, metrics: metrics}
}

// IsConnected reports stream connectivity.
func (c *FeedCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *FeedCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	ticks, errs := c.stream.Read(ctx)
	go c.consume(ctx, ticks, errs)
	return nil
}

// streamRetryDelay spaces out reconnect attempts once the stream's read
// loop has died; a nil channel pair marks that state.
const streamRetryDelay = 5 * time.Second

func (c *FeedCollector) consume(ctx context.Context, ticks <-chan models.Tick, errs <-chan error) {
	for {
		// Both channels nil means the read loop is gone; keep trying to
		// reconnect until it comes back or the context ends. Selecting on
		// the stale channels instead would spin: a closed channel is
		// always ready.
		if ticks == nil && errs == nil {
			if err := c.stream.Reconnect(ctx); err != nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(streamRetryDelay):
				}
				continue
			}
			ticks, errs = c.stream.Read(ctx)
		}

		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				c.metrics.RecordError("stream")
				ticks, errs = nil, nil
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
				if rerr := c.stream.Reconnect(ctx); rerr == nil {
					// reads come from fresh channels after reconnect
					ticks, errs = c.stream.Read(ctx)
				}
			}
		case t, ok := <-ticks:
			if !ok {
				ticks, errs = nil, nil
				continue
			}
			if t.Symbol == "" {
				continue
			}
			if t.At.IsZero() {
				t.At = time.Now()
			}
			c.snapshots.ApplyTick(t)
		}
	}
}

func (c *FeedCollector) Shutdown(ctx context.Context) error {
	return c.stream.Close()
}
