package gainhists

import (
	"database/sql"
	"fmt"

	sqlx "github.com/jmoiron/sqlx"
)

// SQLSource reads events from the events and hits tables of a database.
type SQLSource struct {
	Name string
	db   *sqlx.DB
}

type eventHitRow struct {
	EventID  int64         `db:"event_id"`
	NHitLen  int           `db:"nhit_len"`
	NHitSlab int           `db:"nhit_slab"`
	HitIndex sql.NullInt64 `db:"hit_index"`
	Slab     sql.NullInt64 `db:"slab"`
	Chip     sql.NullInt64 `db:"chip"`
	Chan     sql.NullInt64 `db:"chan"`
	Sca      sql.NullInt64 `db:"sca"`
	IsHit    sql.NullInt64 `db:"is_hit"`
	AdcLow   sql.NullInt64 `db:"adc_low"`
	AdcHigh  sql.NullInt64 `db:"adc_high"`
}

const eventHitsQuery = `SELECT e.event_id, e.nhit_len, e.nhit_slab,
	h.hit_index, h.slab, h.chip, h.chan, h.sca, h.is_hit, h.adc_low, h.adc_high
	FROM events e LEFT JOIN hits h ON h.event_id = e.event_id
	ORDER BY e.event_id, h.hit_index`

var schemaChecks = map[string]string{
	"events": "SELECT event_id, nhit_len, nhit_slab FROM events LIMIT 1",
	"hits":   "SELECT event_id, hit_index, slab, chip, chan, sca, is_hit, adc_low, adc_high FROM hits LIMIT 1",
}

// NewSQLSource checks the tables exist and takes ownership of db.
func NewSQLSource(db *sqlx.DB, name string) (*SQLSource, error) {
	for _, table := range []string{"events", "hits"} {
		rows, err := db.Queryx(schemaChecks[table])
		if err != nil {
			db.Close()
			return nil, &SchemaError{Source: name, Object: table, Err: err}
		}
		rows.Close()
	}
	return &SQLSource{Name: name, db: db}, nil
}

func (s *SQLSource) Scan(fn func(evt *Event) error) error {
	rows, err := s.db.Queryx(eventHitsQuery)
	if err != nil {
		return fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	var (
		evt      Event
		declared int
		started  bool
	)
	flush := func() error {
		if !started {
			return nil
		}
		if evt.NHit() != declared {
			return &CorruptEventError{EventID: evt.ID, Declared: declared, Found: evt.NHit()}
		}
		return fn(&evt)
	}

	for rows.Next() {
		var row eventHitRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("error scanning DB row: %w", err)
		}
		if !started || row.EventID != evt.ID {
			if err := flush(); err != nil {
				return err
			}
			evt.reset(row.EventID, row.NHitSlab)
			declared = row.NHitLen
			started = true
		}
		if !row.HitIndex.Valid {
			continue
		}
		evt.Hits = append(evt.Hits, Hit{
			Layer:    int(row.Slab.Int64),
			Chip:     int(row.Chip.Int64),
			Channel:  int(row.Chan.Int64),
			Cell:     int(row.Sca.Int64),
			IsSignal: row.IsHit.Int64 != 0,
			ADCLow:   int(row.AdcLow.Int64),
			ADCHigh:  int(row.AdcHigh.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error reading events: %w", err)
	}
	return flush()
}

type boundsRowDB struct {
	MinSlab sql.NullInt64 `db:"min_slab"`
	MaxSlab sql.NullInt64 `db:"max_slab"`
	MinChip sql.NullInt64 `db:"min_chip"`
	MaxChip sql.NullInt64 `db:"max_chip"`
	MinChan sql.NullInt64 `db:"min_chan"`
	MaxChan sql.NullInt64 `db:"max_chan"`
	MinSca  sql.NullInt64 `db:"min_sca"`
	MaxSca  sql.NullInt64 `db:"max_sca"`
}

type eventStatsDB struct {
	Events  int64         `db:"n_events"`
	MaxHits sql.NullInt64 `db:"max_hits"`
}

func nullRange(lo, hi sql.NullInt64) Range {
	if !lo.Valid || !hi.Valid {
		return emptyRange()
	}
	return Range{Min: int(lo.Int64), Max: int(hi.Int64)}
}

// Bounds reads the coordinate extremes with aggregate queries instead of a
// full scan.
func (s *SQLSource) Bounds() (Bounds, error) {
	var row boundsRowDB
	err := s.db.Get(&row, `SELECT
		MIN(slab) AS min_slab, MAX(slab) AS max_slab,
		MIN(chip) AS min_chip, MAX(chip) AS max_chip,
		MIN(chan) AS min_chan, MAX(chan) AS max_chan,
		MIN(sca) AS min_sca, MAX(sca) AS max_sca
		FROM hits`)
	if err != nil {
		return Bounds{}, fmt.Errorf("error querying hit bounds: %w", err)
	}
	var stats eventStatsDB
	err = s.db.Get(&stats, "SELECT COUNT(*) AS n_events, MAX(nhit_len) AS max_hits FROM events")
	if err != nil {
		return Bounds{}, fmt.Errorf("error querying event statistics: %w", err)
	}
	return Bounds{
		Layer:   nullRange(row.MinSlab, row.MaxSlab),
		Chip:    nullRange(row.MinChip, row.MaxChip),
		Channel: nullRange(row.MinChan, row.MaxChan),
		Cell:    nullRange(row.MinSca, row.MaxSca),
		MaxHits: int(stats.MaxHits.Int64),
		Events:  stats.Events,
	}, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}
