package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartWALFlusher periodically checkpoints the SQLite write-ahead log into
// the main database file so the WAL stays bounded. Each run is limited to
// timeout. It stops when ctx is done.
func StartWALFlusher(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	timeout time.Duration,
	log *zap.Logger,
) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				runCtx, cancel := context.WithTimeout(ctx, timeout)
				_, err := db.ExecContext(runCtx, `PRAGMA wal_checkpoint(TRUNCATE)`)
				cancel()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Error("failed to checkpoint wal", zap.Error(err))
					continue
				}
				log.Debug("wal checkpointed", zap.Duration("took", time.Since(start)))
			}
		}
	}()
}
