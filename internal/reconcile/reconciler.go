package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trazzini/smstrack/internal/cache"
	"github.com/trazzini/smstrack/internal/metrics"
	"github.com/trazzini/smstrack/internal/model"
	"github.com/trazzini/smstrack/internal/pricing"
	"github.com/trazzini/smstrack/internal/repo"
)

// Reconciler consumes carrier status events and keeps each message record's
// status and cost fields consistent under duplicated and out-of-order
// delivery. Every event is handled independently; a bad event is logged and
// dropped without affecting any other message.
type Reconciler struct {
	store repo.RecordStore
	calc  *pricing.Calculator
	cache cache.StatusCache
}

func New(store repo.RecordStore, calc *pricing.Calculator) *Reconciler {
	return &Reconciler{store: store, calc: calc}
}

// WithCache mirrors every successfully handled status into c, best effort.
func (r *Reconciler) WithCache(c cache.StatusCache) *Reconciler {
	r.cache = c
	return r
}

// HandleEvent applies one carrier status event. The only error returned is
// a store I/O failure, so the caller can answer non-2xx and let the
// carrier's at-least-once retry redeliver; everything else is logged and
// dropped here.
func (r *Reconciler) HandleEvent(ctx context.Context, ev model.StatusEvent) error {
	status, ok := model.ParseStatus(ev.Status)
	if !ok {
		metrics.RecordDroppedEvent("unrecognized_status")
		slog.Warn("ignoring unrecognized carrier status",
			"message_id", ev.MessageID, "status", ev.Status)
		return nil
	}
	metrics.RecordStatusCallback(string(status))

	var err error
	switch {
	case status == model.Sent:
		err = r.handleSent(ctx, ev.MessageID)
	case status == model.Delivered && ev.Price != nil:
		err = r.handleCarrierPrice(ctx, ev.MessageID, *ev.Price)
	default:
		err = r.handleStatusOnly(ctx, ev.MessageID, status)
	}
	if err != nil {
		return err
	}

	r.cacheStatus(ctx, ev.MessageID, status)
	return nil
}

// handleSent computes the provisional cost from the record's own numbers
// and segment count. Replays recompute the same values; if a carrier price
// already landed, the geography fields are still stored but the total is
// left to the carrier.
func (r *Reconciler) handleSent(ctx context.Context, id string) error {
	rec, err := r.store.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		r.drop(id, "record_missing", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load record %s: %w", id, err)
	}

	cost, err := r.calc.Compute(rec.From, rec.To, rec.SegmentCount)
	if err != nil {
		r.drop(id, "cost_computation_failed", err)
		return nil
	}

	status := model.Sent
	return r.apply(ctx, id, repo.RecordUpdate{
		Status:        &status,
		FromCountry:   &cost.FromCountry,
		ToCountry:     &cost.ToCountry,
		SegmentCost:   &cost.SegmentCost,
		ComputedTotal: &cost.TotalCost,
	})
}

// handleCarrierPrice records the carrier-reported final price, which always
// overrides any computed total.
func (r *Reconciler) handleCarrierPrice(ctx context.Context, id string, price decimal.Decimal) error {
	slog.Info("carrier reported final price", "message_id", id, "price", price.String())

	status := model.Delivered
	return r.apply(ctx, id, repo.RecordUpdate{
		Status:       &status,
		CarrierPrice: &price,
	})
}

func (r *Reconciler) handleStatusOnly(ctx context.Context, id string, status model.Status) error {
	return r.apply(ctx, id, repo.RecordUpdate{Status: &status})
}

func (r *Reconciler) apply(ctx context.Context, id string, upd repo.RecordUpdate) error {
	err := r.store.ApplyUpdate(ctx, id, upd)
	if errors.Is(err, repo.ErrNotFound) {
		r.drop(id, "record_missing", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	return nil
}

func (r *Reconciler) drop(id, reason string, err error) {
	metrics.RecordDroppedEvent(reason)
	slog.Warn("dropping status event", "message_id", id, "reason", reason, "error", err)
}

func (r *Reconciler) cacheStatus(ctx context.Context, id string, status model.Status) {
	if r.cache == nil {
		return
	}
	if err := r.cache.StoreStatus(ctx, id, status, time.Now().UTC()); err != nil {
		slog.Warn("status cache write failed", "message_id", id, "error", err)
	}
}
