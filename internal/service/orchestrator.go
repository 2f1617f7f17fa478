package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trazzini/smstrack/internal/carrier"
	"github.com/trazzini/smstrack/internal/metrics"
	"github.com/trazzini/smstrack/internal/model"
	"github.com/trazzini/smstrack/internal/repo"
)

type SendClient interface {
	CreateMessage(ctx context.Context, from, to, body string) (carrier.SendResult, error)
}

// Orchestrator submits a message to the carrier and creates the initial
// queued record from what the carrier returned. Everything after that is
// driven by status callbacks, not by this type.
type Orchestrator struct {
	client SendClient
	store  repo.RecordStore
}

func NewOrchestrator(client SendClient, store repo.RecordStore) *Orchestrator {
	return &Orchestrator{client: client, store: store}
}

func (o *Orchestrator) Send(ctx context.Context, from, to, body string) (model.Record, error) {
	res, err := o.client.CreateMessage(ctx, from, to, body)
	if err != nil {
		metrics.RecordSend(false)
		return model.Record{}, fmt.Errorf("carrier submit: %w", err)
	}

	rec := model.Record{
		ID:           res.ID,
		From:         from,
		To:           to,
		SegmentCount: res.SegmentCount,
		Status:       model.Queued,
		CreatedAt:    res.CreatedAt,
	}

	// The insert is idempotent on the carrier id, so a duplicate
	// submission result cannot clobber an existing record.
	if err := o.store.InsertIfAbsent(ctx, rec); err != nil {
		metrics.RecordSend(false)
		// The carrier already accepted the send; we now have a message in
		// flight with no local record. Accepted inconsistency, not fatal.
		slog.Error("record insert failed after accepted carrier send",
			"message_id", res.ID, "error", err)
		return model.Record{}, fmt.Errorf("store record %s: %w", res.ID, err)
	}

	metrics.RecordSend(true)
	slog.Info("message submitted", "message_id", res.ID, "segments", res.SegmentCount)
	return rec, nil
}
