package gainhists

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

func ConnectToSQLite(path string) (*sqlx.DB, error) {
	return sqlx.Connect("sqlite", path)
}

var eventTablesSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		event_id  BIGINT  NOT NULL PRIMARY KEY,
		nhit_len  INTEGER NOT NULL,
		nhit_slab INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hits (
		event_id  BIGINT  NOT NULL,
		hit_index INTEGER NOT NULL,
		slab      INTEGER NOT NULL,
		chip      INTEGER NOT NULL,
		chan      INTEGER NOT NULL,
		sca       INTEGER NOT NULL,
		is_hit    INTEGER NOT NULL,
		adc_low   INTEGER NOT NULL,
		adc_high  INTEGER NOT NULL,
		PRIMARY KEY (event_id, hit_index)
	)`,
}

// CreateEventTables creates the events and hits tables read by SQLSource.
func CreateEventTables(db *sqlx.DB) error {
	for _, stmt := range eventTablesSchema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("error creating event tables: %w", err)
		}
	}
	return nil
}

type eventRowDB struct {
	EventID  int64 `db:"event_id"`
	NHitLen  int   `db:"nhit_len"`
	NHitSlab int   `db:"nhit_slab"`
}

type hitRowDB struct {
	EventID  int64 `db:"event_id"`
	HitIndex int   `db:"hit_index"`
	Slab     int   `db:"slab"`
	Chip     int   `db:"chip"`
	Chan     int   `db:"chan"`
	Sca      int   `db:"sca"`
	IsHit    int   `db:"is_hit"`
	AdcLow   int   `db:"adc_low"`
	AdcHigh  int   `db:"adc_high"`
}

// InsertEvents stores events in the tables created by CreateEventTables.
func InsertEvents(db *sqlx.DB, events []Event) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, evt := range events {
		_, err := tx.NamedExec(`INSERT INTO events (event_id, nhit_len, nhit_slab)
			VALUES (:event_id, :nhit_len, :nhit_slab)`,
			eventRowDB{EventID: evt.ID, NHitLen: evt.NHit(), NHitSlab: evt.ActiveLayers})
		if err != nil {
			return fmt.Errorf("error inserting event %d: %w", evt.ID, err)
		}
		for i, hit := range evt.Hits {
			row := hitRowDB{
				EventID:  evt.ID,
				HitIndex: i,
				Slab:     hit.Layer,
				Chip:     hit.Chip,
				Chan:     hit.Channel,
				Sca:      hit.Cell,
				AdcLow:   hit.ADCLow,
				AdcHigh:  hit.ADCHigh,
			}
			if hit.IsSignal {
				row.IsHit = 1
			}
			_, err := tx.NamedExec(`INSERT INTO hits
				(event_id, hit_index, slab, chip, chan, sca, is_hit, adc_low, adc_high)
				VALUES (:event_id, :hit_index, :slab, :chip, :chan, :sca, :is_hit, :adc_low, :adc_high)`, row)
			if err != nil {
				return fmt.Errorf("error inserting hit %d of event %d: %w", i, evt.ID, err)
			}
		}
	}
	return tx.Commit()
}
