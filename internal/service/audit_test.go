package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	batches map[string][][]models.AuditLog
}

func (s *memorySink) InsertBatch(_ context.Context, namespace string, logs []models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batches == nil {
		s.batches = map[string][][]models.AuditLog{}
	}
	s.batches[namespace] = append(s.batches[namespace], logs)
	return nil
}

func (s *memorySink) count(namespace string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, batch := range s.batches[namespace] {
		n += len(batch)
	}
	return n
}

func TestAuditWriterGroupsByNamespace(t *testing.T) {
	sink := &memorySink{}
	w := NewAuditWriter(sink, 10, 100, time.Hour)
	w.Start()

	require.True(t, w.Record(models.AuditLog{Namespace: "tenant_a", Method: "POST"}))
	require.True(t, w.Record(models.AuditLog{Namespace: "tenant_b", Method: "PATCH"}))
	require.True(t, w.Record(models.AuditLog{Namespace: "tenant_a", Method: "DELETE"}))

	require.NoError(t, w.Close(context.Background()))

	assert.Equal(t, 2, sink.count("tenant_a"))
	assert.Equal(t, 1, sink.count("tenant_b"))
	assert.False(t, w.Record(models.AuditLog{Namespace: "tenant_a"}))
}

func TestAuditWriterFlushesFullBatch(t *testing.T) {
	sink := &memorySink{}
	w := NewAuditWriter(sink, 10, 2, time.Hour)
	w.Start()
	defer w.Close(context.Background())

	w.Record(models.AuditLog{Namespace: "tenant_a"})
	w.Record(models.AuditLog{Namespace: "tenant_a"})

	require.Eventually(t, func() bool { return sink.count("tenant_a") == 2 }, time.Second, 5*time.Millisecond)
}

func TestAuditWriterFlushesOnTicker(t *testing.T) {
	sink := &memorySink{}
	w := NewAuditWriter(sink, 10, 100, 10*time.Millisecond)
	w.Start()
	defer w.Close(context.Background())

	w.Record(models.AuditLog{Namespace: "tenant_a"})

	require.Eventually(t, func() bool { return sink.count("tenant_a") == 1 }, time.Second, 5*time.Millisecond)
}

func TestAuditWriterDropsWhenFull(t *testing.T) {
	w := NewAuditWriter(&memorySink{}, 1, 100, time.Hour)

	require.True(t, w.Record(models.AuditLog{Namespace: "tenant_a"}))
	require.False(t, w.Record(models.AuditLog{Namespace: "tenant_a"}))
}
