package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"newsrec/internal/embeddings"
)

// PostgresStore keeps one row per cache entry, with the vector in a pgvector
// column. Rows are keyed by (text_hash, model); the full text is kept
// alongside for Load.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres opens the database and ensures the schema exists.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Note: In production, use dedicated migration tools (e.g.,
	// golang-migrate/migrate) that run as a separate deployment step.
	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	// The vector column is left undimensioned: dimensionality is fixed per
	// model, and one table holds entries for any model.
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS embedding_cache (
			text_hash TEXT NOT NULL,
			model TEXT NOT NULL,
			text TEXT NOT NULL,
			vector vector NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now(),
			PRIMARY KEY (text_hash, model)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create embedding_cache table: %w", err)
	}
	return nil
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Load reads every row into the mapping.
func (s *PostgresStore) Load(ctx context.Context) (map[Key]embeddings.Vector, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text, model, vector FROM embedding_cache`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[Key]embeddings.Vector)
	for rows.Next() {
		var (
			text  string
			model string
			vec   pgvector.Vector
		)
		if err := rows.Scan(&text, &model, &vec); err != nil {
			return nil, err
		}
		entries[Key{Text: text, Model: model}] = embeddings.Vector(vec.Slice())
	}
	return entries, rows.Err()
}

// Put upserts a single entry.
func (s *PostgresStore) Put(ctx context.Context, key Key, vec embeddings.Vector) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embedding_cache(text_hash, model, text, vector)
		VALUES($1,$2,$3,$4)
		ON CONFLICT (text_hash, model) DO UPDATE SET vector=excluded.vector`,
		textHash(key.Text), key.Model, key.Text, pgvector.NewVector(vec))
	return err
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
