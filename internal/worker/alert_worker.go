package worker

// alert_worker.go
// Processes low-stock evaluation jobs from QueueAlerts. A sale enqueues one
// job per affected (product, warehouse) pair; the worker re-reads the level
// and composes an alert email when it sits at or under the product minimum.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"stockledger/internal/repository"
)

type AlertWorker struct {
	levels     repository.StockLevelRepository
	products   repository.ProductRepository
	dispatcher *Dispatcher
	alertTo    string
}

func NewAlertWorker(
	levels repository.StockLevelRepository,
	products repository.ProductRepository,
	dispatcher *Dispatcher,
	alertTo string,
) *AlertWorker {
	return &AlertWorker{levels: levels, products: products, dispatcher: dispatcher, alertTo: alertTo}
}

// Process evaluates one pair against its threshold.
func (w *AlertWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload AlertCheckPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return
	}

	level, err := w.levels.Find(ctx, payload.ProductID, payload.WarehouseID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Msg("alert_worker: level lookup failed")
		}
		return
	}
	product, err := w.products.FindByID(ctx, payload.ProductID)
	if err != nil {
		log.Error().Err(err).Msg("alert_worker: product lookup failed")
		return
	}
	if level.Quantity > product.MinStock {
		return
	}

	if w.alertTo == "" {
		log.Warn().Str("sku", product.SKU).Int("quantity", level.Quantity).
			Msg("alert_worker: low stock but no alert recipient configured")
		return
	}

	subject := fmt.Sprintf("Low stock: %s (%s)", product.Name, product.SKU)
	body := fmt.Sprintf(
		"Product %s (%s) is down to %d units in warehouse %s (minimum %d).\n"+
			"Consider receiving new stock.",
		product.Name, product.SKU, level.Quantity, payload.WarehouseID, product.MinStock,
	)
	if err := w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.alertTo,
		Subject: subject,
		Body:    body,
	}); err != nil {
		log.Error().Err(err).Str("sku", product.SKU).Msg("alert_worker: could not enqueue email")
		return
	}
	log.Info().Str("sku", product.SKU).Int("quantity", level.Quantity).
		Int("min_stock", product.MinStock).Msg("alert_worker: low-stock alert queued")
}
