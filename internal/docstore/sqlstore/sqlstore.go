// Package sqlstore is an engine.Backend over a relational database. All
// collections share one table keyed by (collection, id); a per-collection
// sequence column preserves insertion order.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"              // registers the "postgres" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver

	"github.com/ChangJoo-Park/json-api/internal/docstore/engine"
)

// Dialect selects placeholder and DDL syntax.
type Dialect int

const (
	// DialectSQLite uses ? placeholders
	DialectSQLite Dialect = iota
	// DialectPostgres uses $n placeholders
	DialectPostgres
)

// String returns the string representation of the dialect
func (d Dialect) String() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	case DialectPostgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// DialectForDriver returns the dialect of a registered driver name.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return DialectSQLite, nil
	case "pgx", "postgres":
		return DialectPostgres, nil
	default:
		return 0, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// DefaultTable is the table documents are stored in.
const DefaultTable = "documents"

// Backend stores documents in a SQL table.
type Backend struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

var _ engine.Backend = (*Backend)(nil)

// New creates a backend over an open database.
func New(db *sql.DB, dialect Dialect, table string) *Backend {
	if table == "" {
		table = DefaultTable
	}
	return &Backend{db: db, dialect: dialect, table: table}
}

// Open opens a database with a registered driver, verifies the connection
// and creates the documents table when missing.
func Open(ctx context.Context, driver, dsn string) (*Backend, error) {
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	b := New(db, dialect, DefaultTable)
	if err := b.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// Migrate creates the documents table when missing.
func (b *Backend) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	seq BIGINT NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (collection, id)
)`, b.table)

	if _, err := b.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s table: %w", b.table, err)
	}
	return nil
}

// rebind rewrites ? placeholders for the dialect.
func (b *Backend) rebind(query string) string {
	if b.dialect != DialectPostgres {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// List returns the collection in insertion order.
func (b *Backend) List(ctx context.Context, collection string) ([]engine.Record, error) {
	query := b.rebind(fmt.Sprintf("SELECT id, body FROM %s WHERE collection = ? ORDER BY seq", b.table))

	rows, err := b.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, ConvertDBError(err))
	}
	defer rows.Close()

	var records []engine.Record
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		records = append(records, engine.Record{ID: id, Data: []byte(body)})
	}
	if err := rows.Err(); err != nil {
		return nil, ConvertDBError(err)
	}
	return records, nil
}

// Get returns one record.
func (b *Backend) Get(ctx context.Context, collection, id string) (engine.Record, error) {
	query := b.rebind(fmt.Sprintf("SELECT body FROM %s WHERE collection = ? AND id = ?", b.table))

	var body string
	if err := b.db.QueryRowContext(ctx, query, collection, id).Scan(&body); err != nil {
		return engine.Record{}, fmt.Errorf("%s %s: %w", collection, id, ConvertDBError(err))
	}
	return engine.Record{ID: id, Data: []byte(body)}, nil
}

// Insert writes records in one transaction.
func (b *Backend) Insert(ctx context.Context, collection string, records []engine.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	maxQuery := b.rebind(fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) FROM %s WHERE collection = ?", b.table))
	if err := tx.QueryRowContext(ctx, maxQuery, collection).Scan(&seq); err != nil {
		return fmt.Errorf("failed to read sequence of %s: %w", collection, ConvertDBError(err))
	}

	insert := b.rebind(fmt.Sprintf("INSERT INTO %s (collection, id, seq, body) VALUES (?, ?, ?, ?)", b.table))
	for _, rec := range records {
		seq++
		if _, err := tx.ExecContext(ctx, insert, collection, rec.ID, seq, string(rec.Data)); err != nil {
			return fmt.Errorf("failed to insert %s %s: %w", collection, rec.ID, ConvertDBError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", ConvertDBError(err))
	}
	return nil
}

// Put replaces an existing record.
func (b *Backend) Put(ctx context.Context, collection string, rec engine.Record) error {
	query := b.rebind(fmt.Sprintf("UPDATE %s SET body = ? WHERE collection = ? AND id = ?", b.table))

	result, err := b.db.ExecContext(ctx, query, string(rec.Data), collection, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", collection, rec.ID, ConvertDBError(err))
	}
	return expectAffected(result, collection, rec.ID)
}

// Delete removes a record.
func (b *Backend) Delete(ctx context.Context, collection, id string) error {
	query := b.rebind(fmt.Sprintf("DELETE FROM %s WHERE collection = ? AND id = ?", b.table))

	result, err := b.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", collection, id, ConvertDBError(err))
	}
	return expectAffected(result, collection, id)
}

// Close closes the database
func (b *Backend) Close() error {
	return b.db.Close()
}

func expectAffected(result sql.Result, collection, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, ConvertDBError(sql.ErrNoRows))
	}
	return nil
}
