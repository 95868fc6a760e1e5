package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmartel/consoscan/pkg/models"
	_ "modernc.org/sqlite"
)

// Store persists datasets so an analysis session can resume without
// re-downloading or re-parsing source files.
type Store struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// initSchema creates the necessary tables
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		source TEXT,
		date_column TEXT NOT NULL,
		columns TEXT NOT NULL,
		loaded_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS dataset_rows (
		dataset_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		date TEXT NOT NULL,
		PRIMARY KEY (dataset_id, position)
	);
	CREATE TABLE IF NOT EXISTS readings (
		dataset_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		series TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (dataset_id, position, series)
	);
	CREATE INDEX IF NOT EXISTS idx_dataset_rows_date ON dataset_rows(date);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// SaveDataset stores a dataset under its name, replacing any previous
// dataset with the same name wholesale.
func (s *Store) SaveDataset(ds *models.Dataset) error {
	columnsJSON, err := json.Marshal(ds.Columns)
	if err != nil {
		return fmt.Errorf("encoding columns: %w", err)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`SELECT id FROM datasets WHERE name = ?`, ds.Name).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.Exec(`
		INSERT INTO datasets (name, source, date_column, columns, loaded_at)
		VALUES (?, ?, ?, ?, ?)
		`, ds.Name, ds.Source, ds.DateColumn, string(columnsJSON), ds.LoadedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("inserting dataset: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting dataset id: %w", err)
		}
	case err != nil:
		return fmt.Errorf("querying dataset: %w", err)
	default:
		_, err = tx.Exec(`
		UPDATE datasets SET source = ?, date_column = ?, columns = ?, loaded_at = ?
		WHERE id = ?
		`, ds.Source, ds.DateColumn, string(columnsJSON), ds.LoadedAt.UTC().Format(time.RFC3339), id)
		if err != nil {
			return fmt.Errorf("updating dataset: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM dataset_rows WHERE dataset_id = ?`, id); err != nil {
			return fmt.Errorf("clearing rows: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM readings WHERE dataset_id = ?`, id); err != nil {
			return fmt.Errorf("clearing readings: %w", err)
		}
	}

	rowStmt, err := tx.Prepare(`INSERT INTO dataset_rows (dataset_id, position, date) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing row insert: %w", err)
	}
	defer rowStmt.Close()

	readingStmt, err := tx.Prepare(`INSERT INTO readings (dataset_id, position, series, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing reading insert: %w", err)
	}
	defer readingStmt.Close()

	for i, row := range ds.Rows {
		if _, err := rowStmt.Exec(id, i, row.Date.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
		for series, value := range row.Values {
			if _, err := readingStmt.Exec(id, i, series, value); err != nil {
				return fmt.Errorf("inserting reading %d/%s: %w", i, series, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing dataset: %w", err)
	}
	return nil
}

// LoadDataset retrieves a dataset by name. Returns nil without error when
// no dataset has that name.
func (s *Store) LoadDataset(name string) (*models.Dataset, error) {
	var (
		id          int64
		source      string
		dateColumn  string
		columnsJSON string
		loadedAt    string
	)
	err := s.conn.QueryRow(`
	SELECT id, source, date_column, columns, loaded_at
	FROM datasets WHERE name = ?
	`, name).Scan(&id, &source, &dateColumn, &columnsJSON, &loadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying dataset: %w", err)
	}

	ds := &models.Dataset{
		Name:       name,
		Source:     source,
		DateColumn: dateColumn,
	}
	if err := json.Unmarshal([]byte(columnsJSON), &ds.Columns); err != nil {
		return nil, fmt.Errorf("decoding columns: %w", err)
	}
	ds.LoadedAt, err = time.Parse(time.RFC3339, loadedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing loaded_at: %w", err)
	}

	rows, err := s.conn.Query(`
	SELECT position, date FROM dataset_rows
	WHERE dataset_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	index := map[int]int{}
	for rows.Next() {
		var position int
		var dateStr string
		if err := rows.Scan(&position, &dateStr); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		index[position] = len(ds.Rows)
		ds.Rows = append(ds.Rows, models.Row{Date: date, Values: map[string]float64{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	readings, err := s.conn.Query(`
	SELECT position, series, value FROM readings
	WHERE dataset_id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer readings.Close()

	for readings.Next() {
		var position int
		var series string
		var value float64
		if err := readings.Scan(&position, &series, &value); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}
		if i, ok := index[position]; ok {
			ds.Rows[i].Values[series] = value
		}
	}
	if err := readings.Err(); err != nil {
		return nil, fmt.Errorf("reading readings: %w", err)
	}

	return ds, nil
}

// LatestDataset retrieves the most recently loaded dataset. Returns nil
// without error when the store is empty.
func (s *Store) LatestDataset() (*models.Dataset, error) {
	var name string
	err := s.conn.QueryRow(`SELECT name FROM datasets ORDER BY loaded_at DESC, id DESC LIMIT 1`).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest dataset: %w", err)
	}
	return s.LoadDataset(name)
}

// ListDatasets summarizes all stored datasets, most recently loaded first.
func (s *Store) ListDatasets() ([]models.DatasetInfo, error) {
	rows, err := s.conn.Query(`
	SELECT d.name, d.source, d.columns, d.loaded_at, COUNT(r.position)
	FROM datasets d
	LEFT JOIN dataset_rows r ON r.dataset_id = d.id
	GROUP BY d.id
	ORDER BY d.loaded_at DESC, d.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying datasets: %w", err)
	}
	defer rows.Close()

	var results []models.DatasetInfo
	for rows.Next() {
		var info models.DatasetInfo
		var columnsJSON, loadedAt string
		if err := rows.Scan(&info.Name, &info.Source, &columnsJSON, &loadedAt, &info.Rows); err != nil {
			return nil, fmt.Errorf("scanning dataset: %w", err)
		}
		if err := json.Unmarshal([]byte(columnsJSON), &info.Columns); err != nil {
			return nil, fmt.Errorf("decoding columns: %w", err)
		}
		info.LoadedAt, err = time.Parse(time.RFC3339, loadedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing loaded_at: %w", err)
		}
		results = append(results, info)
	}

	return results, rows.Err()
}

// DeleteDataset removes a dataset and its rows. Deleting a name that does
// not exist is an error.
func (s *Store) DeleteDataset(name string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`SELECT id FROM datasets WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return fmt.Errorf("dataset not found: %s", name)
	}
	if err != nil {
		return fmt.Errorf("querying dataset: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM readings WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("deleting readings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM dataset_rows WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("deleting rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM datasets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}
