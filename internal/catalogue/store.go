package catalogue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/NASA-AMMOS/synopsis/internal/metadata"
)

// ErrNotFound is returned by Get/Update operations addressed to an id that
// does not exist in the catalogue.
var ErrNotFound = errors.New("catalogue: data product not found")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS data_products (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	instrument_name TEXT NOT NULL,
	type            TEXT NOT NULL,
	uri             TEXT NOT NULL,
	size            INTEGER NOT NULL,
	sue             REAL NOT NULL DEFAULT 0,
	priority_bin    INTEGER NOT NULL DEFAULT 0,
	downlink_state  INTEGER NOT NULL DEFAULT 0,
	metadata_json   TEXT NOT NULL DEFAULT '{}'
);
`
// #endregion schema

// Store persists the data product catalogue in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath, creating it and running
// migrations if it does not already exist.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertDataProduct inserts rec and returns the assigned ID.
func (s *Store) InsertDataProduct(rec Record) (int64, error) {
	metaJSON, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO data_products
		   (instrument_name, type, uri, size, sue, priority_bin, downlink_state, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.InstrumentName, rec.Type, rec.URI, rec.Size,
		rec.ScienceUtilityEstimate, rec.PriorityBin, int(rec.DownlinkState), metaJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("insert data product: %w", err)
	}
	return res.LastInsertId()
}

// GetDataProduct fetches the record with the given id, returning ErrNotFound
// if no such record exists.
func (s *Store) GetDataProduct(id int64) (Record, error) {
	row := s.db.QueryRow(
		`SELECT id, instrument_name, type, uri, size, sue, priority_bin, downlink_state, metadata_json
		 FROM data_products WHERE id = ?`, id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListDataProductIDs returns the IDs of every catalogued data product.
func (s *Store) ListDataProductIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM data_products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListQueued returns every record not yet downlinked, in the shape the
// planner consumes: one metadata.Entry per record.
func (s *Store) ListQueued() ([]metadata.Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, instrument_name, type, uri, size, sue, priority_bin, downlink_state, metadata_json
		 FROM data_products WHERE downlink_state != ? ORDER BY id`,
		int(Downlinked),
	)
	if err != nil {
		return nil, fmt.Errorf("list queued: %w", err)
	}
	defer rows.Close()

	var entries []metadata.Entry
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, rec.Entry())
	}
	return entries, rows.Err()
}

// UpdateScienceUtility overwrites the science utility estimate for asdpID,
// returning ErrNotFound if asdpID does not exist.
func (s *Store) UpdateScienceUtility(asdpID int64, sue float64) error {
	res, err := s.db.Exec(`UPDATE data_products SET sue = ? WHERE id = ?`, sue, asdpID)
	if err != nil {
		return fmt.Errorf("update science utility: %w", err)
	}
	return checkAffected(res, "update science utility")
}

// UpdatePriorityBin overwrites the priority bin for asdpID, returning
// ErrNotFound if asdpID does not exist.
func (s *Store) UpdatePriorityBin(asdpID int64, bin int) error {
	res, err := s.db.Exec(`UPDATE data_products SET priority_bin = ? WHERE id = ?`, bin, asdpID)
	if err != nil {
		return fmt.Errorf("update priority bin: %w", err)
	}
	return checkAffected(res, "update priority bin")
}

// UpdateDownlinkState overwrites the downlink state for asdpID, returning
// ErrNotFound if asdpID does not exist.
func (s *Store) UpdateDownlinkState(asdpID int64, state DownlinkState) error {
	res, err := s.db.Exec(`UPDATE data_products SET downlink_state = ? WHERE id = ?`, int(state), asdpID)
	if err != nil {
		return fmt.Errorf("update downlink state: %w", err)
	}
	return checkAffected(res, "update downlink state")
}

// checkAffected returns ErrNotFound if res reports zero rows affected,
// wrapping any error the driver has trouble reporting affected-row counts
// for under op.
func checkAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMetadata sets a single existing metadata field on asdpID.
func (s *Store) UpdateMetadata(asdpID int64, field string, value metadata.Value) error {
	rec, err := s.GetDataProduct(asdpID)
	if err != nil {
		return err
	}
	if _, ok := rec.Metadata[field]; !ok {
		return fmt.Errorf("update metadata: field %q does not exist on asdp %d", field, asdpID)
	}
	rec.Metadata[field] = value

	metaJSON, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.Exec(`UPDATE data_products SET metadata_json = ? WHERE id = ?`, metaJSON, asdpID)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row *sql.Row) (Record, error) {
	return scanRecordScanner(row)
}

func scanRecordRows(rows *sql.Rows) (Record, error) {
	return scanRecordScanner(rows)
}

func scanRecordScanner(s scanner) (Record, error) {
	var rec Record
	var downlinkState int
	var metaJSON string

	if err := s.Scan(
		&rec.ID, &rec.InstrumentName, &rec.Type, &rec.URI, &rec.Size,
		&rec.ScienceUtilityEstimate, &rec.PriorityBin, &downlinkState, &metaJSON,
	); err != nil {
		return Record{}, fmt.Errorf("scan data product: %w", err)
	}
	rec.DownlinkState = DownlinkState(downlinkState)

	meta, err := decodeMetadata(metaJSON)
	if err != nil {
		return Record{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	rec.Metadata = meta
	return rec, nil
}

// wireValue mirrors the tagged {kind, value} shape used to serialize a
// metadata.Value to JSON, since metadata.Value carries no struct tags of
// its own for the database layer to lean on.
type wireValue struct {
	Kind string  `json:"kind"`
	I    int64   `json:"i,omitempty"`
	F    float64 `json:"f,omitempty"`
	S    string  `json:"s,omitempty"`
}

func encodeMetadata(e metadata.Entry) (string, error) {
	wire := make(map[string]wireValue, len(e))
	for k, v := range e {
		switch v.Kind {
		case metadata.KindInt:
			wire[k] = wireValue{Kind: "int", I: v.Int64()}
		case metadata.KindFloat:
			wire[k] = wireValue{Kind: "float", F: v.Numeric()}
		case metadata.KindString:
			wire[k] = wireValue{Kind: "string", S: v.Str()}
		}
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(s string) (metadata.Entry, error) {
	var wire map[string]wireValue
	if err := json.Unmarshal([]byte(s), &wire); err != nil {
		return nil, err
	}
	e := metadata.Entry{}
	for k, v := range wire {
		switch v.Kind {
		case "int":
			e[k] = metadata.Int(v.I)
		case "float":
			e[k] = metadata.Float(v.F)
		case "string":
			e[k] = metadata.String(v.S)
		}
	}
	return e, nil
}
