package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"feed-ingest/models"
	"feed-ingest/utils"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	Name       string
	DriverName string
	// positional placeholder for argument n (1-based)
	Placeholder func(n int) string
	DocType     string
	TimeType    string
}

var (
	Postgres = Dialect{
		Name:        "postgres",
		DriverName:  "postgres",
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		DocType:     "JSONB",
		TimeType:    "TIMESTAMPTZ",
	}
	SQLite = Dialect{
		Name:        "sqlite",
		DriverName:  "sqlite",
		Placeholder: func(int) string { return "?" },
		DocType:     "TEXT",
		TimeType:    "DATETIME",
	}
)

const insertBatchSize = 50

// SQLStore persists the catalog as one row per product inside a single
// transaction, so a failed Save rolls back to the previous catalog.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database and runs schema migrations.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: migrate: %w", dialect.Name, err)
	}
	return s, nil
}

// OpenPostgres connects to PostgreSQL, waiting for the server to come up.
func OpenPostgres(ctx context.Context, dsn string, logger *utils.Logger) (*SQLStore, error) {
	db, err := sql.Open(Postgres.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	policy := utils.NewRetryPolicy(9, logger)
	policy.Backoff = []time.Duration{2 * time.Second}
	if err := policy.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s, err := NewSQLStore(db, Postgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens (or creates) an embedded catalog database at path.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open(SQLite.DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one writer; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	s, err := NewSQLStore(db, SQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS catalog_products (
			id            TEXT PRIMARY KEY,
			partner_id    TEXT NOT NULL,
			main_category TEXT NOT NULL DEFAULT '',
			price         NUMERIC(10,2) NOT NULL DEFAULT 0,
			is_active     BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at    %s NOT NULL,
			doc           %s NOT NULL
		)`, s.dialect.TimeType, s.dialect.DocType),
		`CREATE INDEX IF NOT EXISTS idx_catalog_products_partner  ON catalog_products(partner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_products_category ON catalog_products(main_category)`,
		`CREATE TABLE IF NOT EXISTS catalog_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every product back into a Catalog.
func (s *SQLStore) Load(ctx context.Context) (*models.Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, doc FROM catalog_products ORDER BY id`)
	if err != nil {
		return nil, &models.UpsertError{Op: "load", Err: err}
	}
	defer func() { _ = rows.Close() }()

	catalog := models.NewCatalog()
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, &models.UpsertError{Op: "load", Err: fmt.Errorf("scan row: %w", err)}
		}
		p := &models.CanonicalProduct{}
		if err := json.Unmarshal([]byte(doc), p); err != nil {
			return nil, &models.UpsertError{Op: "load", Err: fmt.Errorf("decode %s: %w", id, err)}
		}
		catalog.Products[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, &models.UpsertError{Op: "load", Err: err}
	}

	var generatedAt string
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM catalog_meta WHERE key = %s`, s.dialect.Placeholder(1)),
		"generated_at").Scan(&generatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, &models.UpsertError{Op: "load", Err: err}
	default:
		if t, perr := time.Parse(time.RFC3339Nano, generatedAt); perr == nil {
			catalog.GeneratedAt = t
		}
	}

	catalog.Refresh()
	return catalog, nil
}

// Save replaces all stored products with catalog's in one transaction.
func (s *SQLStore) Save(ctx context.Context, catalog *models.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.UpsertError{Op: "save", Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_products`); err != nil {
		return &models.UpsertError{Op: "save", Err: fmt.Errorf("clear: %w", err)}
	}

	ids := catalog.SortedIDs()
	for i := 0; i < len(ids); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := s.insertBatch(ctx, tx, catalog, ids[i:end]); err != nil {
			return &models.UpsertError{Op: "save", Err: err}
		}
	}

	meta := fmt.Sprintf(`INSERT INTO catalog_meta (key, value) VALUES (%s, %s)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		s.dialect.Placeholder(1), s.dialect.Placeholder(2))
	if _, err := tx.ExecContext(ctx, meta, "generated_at", catalog.GeneratedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return &models.UpsertError{Op: "save", Err: fmt.Errorf("write meta: %w", err)}
	}

	if err := tx.Commit(); err != nil {
		return &models.UpsertError{Op: "save", Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

const productColumns = 7

func (s *SQLStore) insertBatch(ctx context.Context, tx *sql.Tx, catalog *models.Catalog, ids []string) error {
	valueStrings := make([]string, 0, len(ids))
	valueArgs := make([]interface{}, 0, len(ids)*productColumns)

	for idx, id := range ids {
		p := catalog.Products[id]
		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode %s: %w", id, err)
		}

		ph := make([]string, productColumns)
		for c := range ph {
			ph[c] = s.dialect.Placeholder(idx*productColumns + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			id, p.PartnerID, string(p.MainCategory), p.Price, p.IsActive, p.UpdatedAt.UTC(), string(doc))
	}

	query := fmt.Sprintf(`
		INSERT INTO catalog_products (id, partner_id, main_category, price, is_active, updated_at, doc)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
