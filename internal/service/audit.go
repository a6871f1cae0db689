package service

import (
	"context"
	"sync"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/rs/zerolog/log"
)

type AuditSink interface {
	InsertBatch(ctx context.Context, namespace string, logs []models.AuditLog) error
}

// AuditWriter queues audit entries and writes them in per-tenant batches off
// the request path.
type AuditWriter struct {
	sink       AuditSink
	entries    chan models.AuditLog
	batchSize  int
	flushEvery time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAuditWriter(sink AuditSink, bufferSize, batchSize int, flushEvery time.Duration) *AuditWriter {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushEvery <= 0 {
		flushEvery = 5 * time.Second
	}
	return &AuditWriter{
		sink:       sink,
		entries:    make(chan models.AuditLog, bufferSize),
		batchSize:  batchSize,
		flushEvery: flushEvery,
		done:       make(chan struct{}),
	}
}

func (w *AuditWriter) Start() {
	go w.run()
}

// Record queues entry without blocking. It returns false when the queue is
// full or the writer is closed.
func (w *AuditWriter) Record(entry models.AuditLog) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}

	select {
	case w.entries <- entry:
		return true
	default:
		log.Warn().Str("namespace", entry.Namespace).Msg("Audit queue full, dropping entry")
		return false
	}
}

// Close flushes queued entries and stops the writer.
func (w *AuditWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.entries)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *AuditWriter) run() {
	defer close(w.done)

	pending := make(map[string][]models.AuditLog)
	count := 0
	ticker := time.NewTicker(w.flushEvery)
	defer ticker.Stop()

	flush := func() {
		for namespace, batch := range pending {
			if err := w.sink.InsertBatch(context.Background(), namespace, batch); err != nil {
				log.Error().Err(err).Str("namespace", namespace).Int("entries", len(batch)).Msg("Failed to write audit batch")
			}
		}
		pending = make(map[string][]models.AuditLog)
		count = 0
	}

	for {
		select {
		case entry, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			pending[entry.Namespace] = append(pending[entry.Namespace], entry)
			count++
			if count >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			if count > 0 {
				flush()
			}
		}
	}
}
