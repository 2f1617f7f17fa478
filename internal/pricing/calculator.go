package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trazzini/smstrack/internal/geo"
)

var ErrInvalidSegmentCount = errors.New("segment count must be > 0")

// Cost is the provisional cost breakdown for one message.
type Cost struct {
	FromCountry string
	ToCountry   string
	SegmentCost decimal.Decimal
	TotalCost   decimal.Decimal
}

type Calculator struct {
	table *Table
}

func NewCalculator(table *Table) *Calculator {
	return &Calculator{table: table}
}

// Compute resolves both countries, looks up the route price and scales it
// by the segment count. Pure: no I/O, and identical inputs always produce
// the identical breakdown, which is what makes replaying a status event
// safe.
func (c *Calculator) Compute(fromNumber, toNumber string, segments int) (Cost, error) {
	if segments <= 0 {
		return Cost{}, fmt.Errorf("%w: got %d", ErrInvalidSegmentCount, segments)
	}

	fromCountry, err := geo.ResolveCountry(fromNumber)
	if err != nil {
		return Cost{}, fmt.Errorf("from number: %w", err)
	}
	toCountry, err := geo.ResolveCountry(toNumber)
	if err != nil {
		return Cost{}, fmt.Errorf("to number: %w", err)
	}

	segmentCost, err := c.table.SegmentCost(fromCountry, toCountry)
	if err != nil {
		return Cost{}, err
	}

	return Cost{
		FromCountry: fromCountry,
		ToCountry:   toCountry,
		SegmentCost: segmentCost,
		TotalCost:   segmentCost.Mul(decimal.NewFromInt(int64(segments))),
	}, nil
}
