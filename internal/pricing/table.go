package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNoRoute = errors.New("no price route for country pair")

// Route is the composite lookup key for a per-segment price: origin and
// destination country, lowercase ISO codes.
type Route struct {
	From string
	To   string
}

// Table holds the static per-segment prices. Built once at startup and
// read-only afterwards, so it is safe for concurrent lookups.
type Table struct {
	rates map[Route]decimal.Decimal
}

func NewTable(rates map[Route]decimal.Decimal) *Table {
	t := &Table{rates: make(map[Route]decimal.Decimal, len(rates))}
	for r, cost := range rates {
		t.rates[Route{From: strings.ToLower(r.From), To: strings.ToLower(r.To)}] = cost
	}
	return t
}

// DefaultTable is the built-in route set used when no table file is
// configured.
func DefaultTable() *Table {
	return NewTable(map[Route]decimal.Decimal{
		{From: "us", To: "us"}: decimal.RequireFromString("0.0200"),
		{From: "us", To: "br"}: decimal.RequireFromString("0.0570"),
	})
}

// LoadFile reads a price table from a JSON file shaped as
// {"us": {"us": "0.0200", "br": "0.0570"}}: origin country to destination
// country to per-segment price.
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table: %w", err)
	}

	var nested map[string]map[string]json.Number
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("parse price table %s: %w", path, err)
	}

	rates := make(map[Route]decimal.Decimal)
	for from, dests := range nested {
		for to, price := range dests {
			cost, err := decimal.NewFromString(price.String())
			if err != nil {
				return nil, fmt.Errorf("price table %s: route %s->%s: %w", path, from, to, err)
			}
			rates[Route{From: from, To: to}] = cost
		}
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("price table %s contains no routes", path)
	}

	return NewTable(rates), nil
}

// SegmentCost returns the per-segment price for a country pair. An
// unmodeled pair is a hard error, never a zero or default price.
func (t *Table) SegmentCost(from, to string) (decimal.Decimal, error) {
	cost, ok := t.rates[Route{From: strings.ToLower(from), To: strings.ToLower(to)}]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s->%s", ErrNoRoute, from, to)
	}
	return cost, nil
}
