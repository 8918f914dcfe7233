package worker

// reconcile_cron.go
// Background goroutine that periodically compares the stock-level projection
// against the sum of the batch ledger. Both are written in the same
// transaction, so any mismatch means a bug or manual database surgery and is
// worth waking someone up for.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"stockledger/internal/repository"
)

// ReconcileCronConfig holds the dependencies for the reconciliation goroutine.
type ReconcileCronConfig struct {
	Levels     repository.StockLevelRepository
	Dispatcher *Dispatcher
	Interval   time.Duration
	AlertTo    string
}

// StartReconcileCron launches a goroutine that ticks every cfg.Interval and
// reports drift between the projection and the ledger. It respects the
// context for graceful shutdown.
func StartReconcileCron(ctx context.Context, cfg ReconcileCronConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("reconcile_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				runReconciliation(ctx, cfg)
			}
		}
	}()
}

func runReconciliation(ctx context.Context, cfg ReconcileCronConfig) {
	rows, err := cfg.Levels.ListDrift(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconcile_cron: drift query failed")
		return
	}
	if len(rows) == 0 {
		return
	}

	var b strings.Builder
	for _, row := range rows {
		log.Error().
			Str("product_id", row.ProductID.String()).
			Str("warehouse_id", row.WarehouseID.String()).
			Int("level_qty", row.LevelQty).
			Int("ledger_qty", row.LedgerQty).
			Msg("reconcile_cron: projection drifted from batch ledger")
		fmt.Fprintf(&b, "product %s warehouse %s: level=%d ledger=%d\n",
			row.ProductID, row.WarehouseID, row.LevelQty, row.LedgerQty)
	}

	if cfg.Dispatcher == nil || cfg.AlertTo == "" {
		return
	}
	if err := cfg.Dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: cfg.AlertTo,
		Subject: fmt.Sprintf("Stock ledger drift: %d pair(s)", len(rows)),
		Body:    "The stock-level projection disagrees with the batch ledger:\n\n" + b.String(),
	}); err != nil {
		log.Error().Err(err).Msg("reconcile_cron: could not enqueue drift alert")
	}
}
