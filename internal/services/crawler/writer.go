package crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/interfaces"
	"github.com/ternarybob/sideline/internal/models"
)

// ErrWriteBacklog is returned when the in-memory admission buffer exceeds
// its high-water mark. It is the crawler's only fatal condition.
var ErrWriteBacklog = fmt.Errorf("catalog write backlog exceeded buffer limit")

// pendingWriter serializes catalog upserts and buffers admissions the
// store rejects. Discoveries are never dropped silently: a failed write
// waits in the buffer and is retried before every later write.
type pendingWriter struct {
	storage  interfaces.CatalogStorage
	limit    int
	cycleLog *common.CycleLog
	logger   arbor.ILogger

	mu      sync.Mutex
	pending []models.SiteUpsert
}

func newPendingWriter(storage interfaces.CatalogStorage, limit int, cycleLog *common.CycleLog, logger arbor.ILogger) *pendingWriter {
	return &pendingWriter{
		storage:  storage,
		limit:    limit,
		cycleLog: cycleLog,
		logger:   logger,
	}
}

// Write drains any buffered admissions, then writes the new one. A store
// failure buffers the upsert and reports written=false; overflowing the
// buffer returns ErrWriteBacklog and the cycle must abort.
func (w *pendingWriter) Write(ctx context.Context, upsert models.SiteUpsert) (outcome models.UpsertOutcome, written bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.drainLocked(ctx)

	outcome, storeErr := w.storage.Upsert(ctx, upsert)
	if storeErr != nil {
		w.logger.Warn().Str("url", upsert.URL).Err(storeErr).Msg("Catalog write failed, buffering admission")
		return models.UpsertOutcome{}, false, w.bufferLocked(upsert)
	}
	return outcome, true, nil
}

// Flush retries everything left in the buffer. Called once at cycle end.
func (w *pendingWriter) Flush(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.drainLocked(ctx)
	if len(w.pending) > 0 {
		w.logger.Error().Int("pending", len(w.pending)).Msg("Admission buffer not fully drained at cycle end")
	}
}

func (w *pendingWriter) drainLocked(ctx context.Context) {
	for len(w.pending) > 0 {
		next := w.pending[0]
		if _, err := w.storage.Upsert(ctx, next); err != nil {
			return // Store still down; keep buffering
		}
		w.pending = w.pending[1:]
		if w.cycleLog != nil {
			w.cycleLog.Append(fmt.Sprintf("Site %s successfully written to database", next.URL))
		}
		w.logger.Info().Str("url", next.URL).Msg("Buffered admission successfully written to database")
	}
}

func (w *pendingWriter) bufferLocked(upsert models.SiteUpsert) error {
	if len(w.pending) >= w.limit {
		return ErrWriteBacklog
	}
	w.pending = append(w.pending, upsert)
	return nil
}

// PendingCount returns the number of buffered admissions
func (w *pendingWriter) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
