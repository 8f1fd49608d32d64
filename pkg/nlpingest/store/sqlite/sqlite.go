package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/nlpingest/pkg/nlpingest/store"
)

// sqliteSink implements store.Sink using SQLite
type sqliteSink struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func Open(ctx context.Context, path string) (store.Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: writes from concurrent workers are serialized.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteSink{db: db}, nil
}

// Close closes the database connection
func (s *sqliteSink) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS docs (
	id TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS doc_entities (
	doc_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	value TEXT NOT NULL,
	UNIQUE(doc_id, kind, value),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_doc_entities_kind_value ON doc_entities(kind, value);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Put inserts or replaces a record
func (s *sqliteSink) Put(ctx context.Context, r store.Record) (string, error) {
	if r.ID == "" {
		r.ID = store.NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO docs (id, body, created_at)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	body=excluded.body,
	created_at=excluded.created_at;
`
	if _, err := tx.ExecContext(ctx, stmt, r.ID, string(r.Body), r.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return "", err
	}
	if err := replaceDocEntities(ctx, tx, r.ID, store.UniqueEntities(r.Entities)); err != nil {
		return "", err
	}
	return r.ID, tx.Commit()
}

func replaceDocEntities(ctx context.Context, tx *sql.Tx, docID string, ents []store.Entity) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_entities WHERE doc_id=?`, docID); err != nil {
		return err
	}
	if len(ents) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO doc_entities (doc_id, kind, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, ent := range ents {
		if _, err := stmt.ExecContext(ctx, docID, ent.Kind, ent.Value); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a record by id
func (s *sqliteSink) Get(ctx context.Context, id string) (store.Record, bool, error) {
	var (
		body    string
		created string
	)
	err := s.db.QueryRowContext(ctx, `SELECT body, created_at FROM docs WHERE id = ?`, id).Scan(&body, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, err
	}

	r := store.Record{ID: id, Body: []byte(body)}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Record{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, value FROM doc_entities WHERE doc_id = ? ORDER BY rowid`, id)
	if err != nil {
		return store.Record{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var e store.Entity
		if err := rows.Scan(&e.Kind, &e.Value); err != nil {
			return store.Record{}, false, err
		}
		r.Entities = append(r.Entities, e)
	}
	if err := rows.Err(); err != nil {
		return store.Record{}, false, err
	}
	return r, true, nil
}

// Count returns the number of stored records
func (s *sqliteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n)
	return n, err
}

// DocsWithEntity returns ids of records holding the entity
func (s *sqliteSink) DocsWithEntity(ctx context.Context, kind, value string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT doc_id
FROM doc_entities
WHERE kind = ? AND value = ?
ORDER BY doc_id;
`, kind, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
