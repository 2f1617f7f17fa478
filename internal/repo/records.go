package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/trazzini/smstrack/internal/model"
)

var ErrNotFound = errors.New("message record not found")

// RecordUpdate names the fields one update may set. Nil fields are left
// untouched. Cost authority rules are part of this contract and must hold
// inside a single atomic store operation:
//   - FromCountry, ToCountry and SegmentCost are only written when still
//     unset (first computation wins; recomputation is a no-op).
//   - ComputedTotal is applied only while the carrier has not reported a
//     price yet.
//   - CarrierPrice always wins, and is the only field that may flip
//     costSetByCarrier to true.
//   - Status never regresses a terminal status.
//
// lastModified is stamped by the store on every applied update.
type RecordUpdate struct {
	Status        *model.Status
	FromCountry   *string
	ToCountry     *string
	SegmentCost   *decimal.Decimal
	ComputedTotal *decimal.Decimal
	CarrierPrice  *decimal.Decimal
}

type RecordStore interface {
	// InsertIfAbsent creates the record unless the id already exists, in
	// which case the existing record is left untouched and no error is
	// returned.
	InsertIfAbsent(ctx context.Context, rec model.Record) error

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Record, error)

	// ApplyUpdate applies upd to the record for id as one atomic write.
	// Returns ErrNotFound when the id is unknown.
	ApplyUpdate(ctx context.Context, id string, upd RecordUpdate) error
}
