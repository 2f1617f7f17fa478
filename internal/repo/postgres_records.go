package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/trazzini/smstrack/internal/model"
)

type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

// EnsureSchema creates the records table when it does not exist yet.
func (s *PostgresRecordStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS message_records (
			id                  TEXT PRIMARY KEY,
			from_number         TEXT NOT NULL,
			to_number           TEXT NOT NULL,
			segment_count       INT NOT NULL,
			status              TEXT NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL,
			from_country        TEXT,
			to_country          TEXT,
			segment_cost        NUMERIC(12, 6),
			total_cost          NUMERIC(12, 6),
			cost_set_by_carrier BOOLEAN NOT NULL DEFAULT FALSE,
			last_modified       TIMESTAMPTZ
		)
	`)
	return err
}

func (s *PostgresRecordStore) InsertIfAbsent(ctx context.Context, rec model.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_records (id, from_number, to_number, segment_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, rec.From, rec.To, rec.SegmentCount, string(rec.Status), rec.CreatedAt.UTC())
	return err
}

func (s *PostgresRecordStore) Get(ctx context.Context, id string) (model.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, from_number, to_number, segment_count, status, created_at,
		       from_country, to_country, segment_cost, total_cost,
		       cost_set_by_carrier, last_modified
		FROM message_records
		WHERE id = $1
	`, id)

	var rec model.Record
	var status string
	var fromCountry, toCountry sql.NullString
	var segmentCost, totalCost decimal.NullDecimal
	var lastModified sql.NullTime

	err := row.Scan(
		&rec.ID,
		&rec.From,
		&rec.To,
		&rec.SegmentCount,
		&status,
		&rec.CreatedAt,
		&fromCountry,
		&toCountry,
		&segmentCost,
		&totalCost,
		&rec.CostSetByCarrier,
		&lastModified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, ErrNotFound
	}
	if err != nil {
		return model.Record{}, err
	}

	rec.Status = model.Status(status)

	if fromCountry.Valid {
		v := fromCountry.String
		rec.FromCountry = &v
	}
	if toCountry.Valid {
		v := toCountry.String
		rec.ToCountry = &v
	}
	if segmentCost.Valid {
		v := segmentCost.Decimal
		rec.SegmentCost = &v
	}
	if totalCost.Valid {
		v := totalCost.Decimal
		rec.TotalCost = &v
	}
	if lastModified.Valid {
		t := lastModified.Time
		rec.LastModified = &t
	}

	return rec, nil
}

// ApplyUpdate is a single conditional UPDATE so that concurrent events for
// the same id cannot interleave: the carrier-price precedence and the
// write-once geography fields are decided inside the statement, not by a
// read-modify-write round trip.
func (s *PostgresRecordStore) ApplyUpdate(ctx context.Context, id string, upd RecordUpdate) error {
	var status *string
	if upd.Status != nil {
		v := string(*upd.Status)
		status = &v
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE message_records SET
			status = CASE
				WHEN $2::text IS NULL THEN status
				WHEN status IN ('delivered', 'undelivered', 'failed') THEN status
				ELSE $2::text
			END,
			from_country = COALESCE(from_country, $3::text),
			to_country   = COALESCE(to_country, $4::text),
			segment_cost = COALESCE(segment_cost, $5::numeric),
			total_cost = CASE
				WHEN $7::numeric IS NOT NULL THEN $7::numeric
				WHEN $6::numeric IS NOT NULL AND NOT cost_set_by_carrier THEN $6::numeric
				ELSE total_cost
			END,
			cost_set_by_carrier = cost_set_by_carrier OR $7::numeric IS NOT NULL,
			last_modified = now()
		WHERE id = $1
	`, id, status, upd.FromCountry, upd.ToCountry, upd.SegmentCost, upd.ComputedTotal, upd.CarrierPrice)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
