package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartPendingOrderCleaner deletes unpaid orders older than retention every
// interval until ctx is done.
func StartPendingOrderCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM orders
                     WHERE status = 'pending'
                       AND created_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean expired pending orders", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned expired pending orders", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
