// Package postgres stores the chunk row table in PostgreSQL through bun.
//
// The schema mirrors the SQLite store: a documents table holding the
// administrative columns and a document_chunks table holding passages,
// created on first connect with CREATE TABLE IF NOT EXISTS.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/logger"
)

// Ensure Store implements the interfaces.
var (
	_ driven.RowSource  = (*Store)(nil)
	_ driven.RowCounter = (*Store)(nil)
)

type documentModel struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	DocID       string `bun:"doc_id,pk"`
	Title       string `bun:"title,notnull,default:''"`
	Department  string `bun:"department,notnull,default:'general'"`
	AccessLevel string `bun:"access_level,notnull,default:'internal'"`
	CreatedAt   string `bun:"created_at,notnull,default:''"`
	UpdatedAt   string `bun:"updated_at,notnull,default:''"`
}

type chunkModel struct {
	bun.BaseModel `bun:"table:document_chunks,alias:c"`

	ChunkID    string `bun:"chunk_id,pk"`
	DocID      string `bun:"doc_id,notnull"`
	ChunkIndex int    `bun:"chunk_index,notnull,default:0"`
	Text       string `bun:"text,notnull,default:''"`
}

type joinedRow struct {
	DocID       string `bun:"doc_id"`
	ChunkID     string `bun:"chunk_id"`
	Title       string `bun:"title"`
	Department  string `bun:"department"`
	AccessLevel string `bun:"access_level"`
	Text        string `bun:"text"`
	CreatedAt   string `bun:"created_at"`
	UpdatedAt   string `bun:"updated_at"`
}

// Store keeps the row table in PostgreSQL.
type Store struct {
	db       *bun.DB
	location string
}

// Connect opens dsn, verifies the connection and creates the schema.
// Queries are logged through bundebug when verbose logging is on.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if logger.IsVerbose() {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &Store{db: db, location: redact(dsn)}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", s.location, err)
	}
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("postgres: connected to %s", s.location)
	return s, nil
}

// NewStore wraps an existing bun database. The schema is not created.
func NewStore(db *bun.DB, location string) *Store {
	return &Store{db: db, location: location}
}

// InitSchema creates the tables and index when they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*documentModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	if _, err := s.db.NewCreateTable().
		Model((*chunkModel)(nil)).
		IfNotExists().
		ForeignKey(`("doc_id") REFERENCES "documents" ("doc_id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("creating document_chunks table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*chunkModel)(nil)).
		Index("idx_document_chunks_doc").
		Column("doc_id", "chunk_index").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("creating chunk index: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Location returns the DSN with any password removed.
func (s *Store) Location() string {
	return s.location
}

// Load returns every chunk joined with its document, ordered by doc_id
// and chunk position.
func (s *Store) Load(ctx context.Context) (domain.RowTable, error) {
	var joined []joinedRow
	err := s.db.NewSelect().
		TableExpr("document_chunks AS c").
		Join("JOIN documents AS d ON d.doc_id = c.doc_id").
		ColumnExpr("d.doc_id, c.chunk_id, d.title, d.department, d.access_level").
		ColumnExpr("c.text, d.created_at, d.updated_at").
		OrderExpr("d.doc_id, c.chunk_index, c.chunk_id").
		Scan(ctx, &joined)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}

	table := make(domain.RowTable, 0, len(joined))
	for _, r := range joined {
		table = append(table, domain.ChunkRow(r))
	}
	return table, nil
}

// Save replaces every document and chunk in one transaction.
// Blank or repeated chunk ids are regenerated before insert.
func (s *Store) Save(ctx context.Context, table domain.RowTable) error {
	docs, chunks := splitTable(table.WithChunkIDs())

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*chunkModel)(nil)).Where("TRUE").Exec(ctx); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}
		if _, err := tx.NewDelete().Model((*documentModel)(nil)).Where("TRUE").Exec(ctx); err != nil {
			return fmt.Errorf("clearing documents: %w", err)
		}
		if len(docs) > 0 {
			if _, err := tx.NewInsert().Model(&docs).Exec(ctx); err != nil {
				return fmt.Errorf("saving documents: %w", err)
			}
		}
		if len(chunks) > 0 {
			if _, err := tx.NewInsert().Model(&chunks).Exec(ctx); err != nil {
				return fmt.Errorf("saving chunks: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("postgres: saved %d rows across %d documents", len(chunks), len(docs))
	return nil
}

// HasAnyRows reports whether any chunk is stored.
func (s *Store) HasAnyRows(ctx context.Context) (bool, error) {
	exists, err := s.db.NewSelect().Model((*chunkModel)(nil)).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("counting chunks: %w", err)
	}
	return exists, nil
}

// splitTable derives one document per doc_id from its first row, in first
// appearance order, and one chunk per row.
func splitTable(table domain.RowTable) ([]documentModel, []chunkModel) {
	docs := make([]documentModel, 0)
	chunks := make([]chunkModel, 0, len(table))
	seen := make(map[string]bool)
	for _, r := range table {
		if !seen[r.DocID] {
			seen[r.DocID] = true
			docs = append(docs, documentModel{
				DocID:       r.DocID,
				Title:       r.Title,
				Department:  r.Department,
				AccessLevel: r.AccessLevel,
				CreatedAt:   r.CreatedAt,
				UpdatedAt:   r.UpdatedAt,
			})
		}
		chunks = append(chunks, chunkModel{
			ChunkID:    r.ChunkID,
			DocID:      r.DocID,
			ChunkIndex: domain.ChunkIndex(r.ChunkID),
			Text:       r.Text,
		})
	}
	return docs, chunks
}

func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "postgres"
	}
	return u.Redacted()
}
