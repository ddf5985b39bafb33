package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/propeller-charts/internal/propeller"
)

// maxBatchSize keeps a batch insert below SQLite's bound variable limit
const maxBatchSize = 90

// ErrNoPropeller is returned when a dataset file holds no propeller record
var ErrNoPropeller = errors.New("dataset file has no propeller record")

// SqliteStore reads and writes a single propeller dataset file
type SqliteStore struct {
	dbPath       string
	maxBatchSize int

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// WithMaxBatchSize sets the number of characteristic rows inserted by a
// single statement.
func WithMaxBatchSize(size int) func(*SqliteStore) {
	return func(s *SqliteStore) {
		if size > 0 && size <= maxBatchSize {
			s.maxBatchSize = size
		}
	}
}

// NewSqliteStore creates a store for the dataset file at dbPath. Connections
// are opened on first use.
func NewSqliteStore(dbPath string, options ...func(*SqliteStore)) *SqliteStore {
	s := SqliteStore{
		dbPath:       dbPath,
		maxBatchSize: maxBatchSize,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// SaveDataset replaces the content of the file with ds in a single transaction.
func (s *SqliteStore) SaveDataset(ctx context.Context, ds *propeller.Dataset) (err error) {
	if err = ds.Validate(); err != nil {
		return fmt.Errorf("validating dataset %s: %w", ds.Name, err)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	for _, q := range []string{deleteCharacteristicsSQL, deletePropellerSQL} {
		if _, err = tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clearing previous dataset: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, insertPropellerSQL, ds.Name, ds.DiameterInches); err != nil {
		return fmt.Errorf("inserting propeller: %w", err)
	}

	for batch := range slices.Chunk(toCharacteristicRows(ds), s.maxBatchSize) {
		if err = insertCharacteristics(ctx, tx, batch); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func insertCharacteristics(ctx context.Context, tx *sql.Tx, batch []characteristicRow) error {
	values := make([]any, 0, len(batch)*characteristicsColumns)

	var sb strings.Builder
	sb.WriteString(insertCharacteristicsSQL)

	for i := range batch {
		values = append(values, batch[i].values()...)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(characteristicsPlaceholder)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting characteristics: %w", err)
	}
	return nil
}

// Info describes the propeller record of a dataset file.
type Info struct {
	Name           string
	DiameterInches float64
	CreatedAt      time.Time
}

// Info returns the propeller record of the file.
func (s *SqliteStore) Info(ctx context.Context) (info *Info, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectPropellerSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var i Info
	if err = stmt.QueryRowContext(ctx).Scan(&i.Name, &i.DiameterInches, &i.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNoPropeller
		}
		err = fmt.Errorf("scanning propeller: %w", err)
		return
	}
	return &i, nil
}

// LoadDataset reads the dataset stored in the file and validates it.
func (s *SqliteStore) LoadDataset(ctx context.Context) (ds *propeller.Dataset, err error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}

	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectCharacteristicsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying characteristics: %w", err)
	}
	defer closeWithError(rows, &err)

	ds = &propeller.Dataset{
		Name:           info.Name,
		DiameterInches: info.DiameterInches,
		Tables:         make(map[int]*propeller.Table),
	}

	for rows.Next() {
		var r characteristicRow
		if err = rows.Scan(r.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scanning characteristic: %w", err)
		}

		t, ok := ds.Tables[r.Speed]
		if !ok {
			t = &propeller.Table{}
			ds.Tables[r.Speed] = t
		}
		t.Append(r.Row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating characteristics: %w", err)
	}

	if err = ds.Validate(); err != nil {
		return nil, fmt.Errorf("validating dataset %s: %w", ds.Name, err)
	}
	return ds, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
