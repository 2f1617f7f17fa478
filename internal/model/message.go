package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the closed set of carrier delivery statuses we recognize.
type Status string

const (
	Accepted    Status = "accepted"
	Queued      Status = "queued"
	Sending     Status = "sending"
	Sent        Status = "sent"
	Delivered   Status = "delivered"
	Undelivered Status = "undelivered"
	Failed      Status = "failed"
)

var knownStatuses = map[Status]bool{
	Accepted:    true,
	Queued:      true,
	Sending:     true,
	Sent:        true,
	Delivered:   true,
	Undelivered: true,
	Failed:      true,
}

// ParseStatus maps a raw carrier status string onto the enum. The second
// return value is false for anything outside the known set.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, knownStatuses[s]
}

// Terminal reports whether the carrier will not move the message past this
// status anymore.
func (s Status) Terminal() bool {
	return s == Delivered || s == Undelivered || s == Failed
}

// Record is one tracked outbound message, keyed by the carrier-assigned
// message id. Cost fields stay nil until the first cost computation or
// carrier price report.
type Record struct {
	ID           string    `json:"id"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	SegmentCount int       `json:"segmentCount"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`

	FromCountry      *string          `json:"fromCountry,omitempty"`
	ToCountry        *string          `json:"toCountry,omitempty"`
	SegmentCost      *decimal.Decimal `json:"segmentCost,omitempty"`
	TotalCost        *decimal.Decimal `json:"totalCost,omitempty"`
	CostSetByCarrier bool             `json:"costSetByCarrier"`
	LastModified     *time.Time       `json:"lastModified,omitempty"`
}

// StatusEvent is one inbound carrier callback. Status is kept raw so the
// reconciler can decide what to do with values outside the enum. Price is
// only present on some delivered callbacks.
type StatusEvent struct {
	MessageID string
	Status    string
	Price     *decimal.Decimal
}
