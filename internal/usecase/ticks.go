package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/annuu1/autozonexnxt-sub000/internal/domain/models"
	domrepo "github.com/annuu1/autozonexnxt-sub000/internal/domain/repository"
	"github.com/annuu1/autozonexnxt-sub000/internal/service/feed"
	pkgkafka "github.com/annuu1/autozonexnxt-sub000/pkg/kafka"
)

// TicksHandler consumes broker ticks from Kafka and folds them into the
// in-memory snapshot table used by zone scans.
type TicksHandler struct {
	topic     string
	snapshots *feed.SnapshotTable
	metrics   domrepo.Metrics
}

func NewTicksHandler(topic string, snapshots *feed.SnapshotTable, metrics domrepo.Metrics) *TicksHandler {
	return &TicksHandler{topic: topic, snapshots: snapshots, metrics: metrics}
}

func (h *TicksHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, p}
func (h *TicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		P      float64 `json:"p"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	h.snapshots.ApplyTick(models.Tick{
		Symbol: m.Symbol,
		Price:  m.P,
		At:     time.Unix(m.T, 0),
	})
	return nil
}

var _ pkgkafka.MessageHandler = (*TicksHandler)(nil)
