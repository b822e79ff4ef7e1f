package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook/internal/core/domain"
)

// testDSNEnv names a scratch database for the integration tests.
// Its tables are dropped and recreated.
const testDSNEnv = "HANDBOOK_TEST_POSTGRES_DSN"

func row(docID string, n int, text string) domain.ChunkRow {
	return domain.ChunkRow{
		DocID:       docID,
		ChunkID:     domain.ChunkID(docID, n),
		Title:       "Title " + docID,
		Department:  "hr",
		AccessLevel: "internal",
		Text:        text,
		CreatedAt:   "2024-01-10",
		UpdatedAt:   "2024-01-12",
	}
}

func TestSplitTable(t *testing.T) {
	table := domain.RowTable{
		row("DOC0002", 1, "a"),
		row("DOC0001", 1, "b"),
		row("DOC0002", 2, "c"),
	}

	docs, chunks := splitTable(table)

	require.Len(t, docs, 2)
	assert.Equal(t, "DOC0002", docs[0].DocID)
	assert.Equal(t, "DOC0001", docs[1].DocID)
	assert.Equal(t, "hr", docs[0].Department)
	require.Len(t, chunks, 3)
	assert.Equal(t, 2, chunks[2].ChunkIndex)
	assert.Equal(t, "DOC0002", chunks[2].DocID)
}

func TestSplitTable_Empty(t *testing.T) {
	docs, chunks := splitTable(nil)

	assert.Empty(t, docs)
	assert.Empty(t, chunks)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "postgres://app:xxxxx@db:5432/handbook?sslmode=disable",
		redact("postgres://app:secret@db:5432/handbook?sslmode=disable"))
	assert.Equal(t, "postgres://db/handbook", redact("postgres://db/handbook"))
	assert.Equal(t, "postgres", redact("host=db user=app"))
}

func connectTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	ctx := context.Background()
	store, err := Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, "DROP TABLE IF EXISTS document_chunks, documents")
	require.NoError(t, err)
	require.NoError(t, store.InitSchema(ctx))
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestStore_Integration_SaveLoad(t *testing.T) {
	store := connectTestStore(t)
	ctx := context.Background()

	has, err := store.HasAnyRows(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	table := domain.RowTable{
		row("DOC0002", 2, "two-b"),
		row("DOC0001", 1, "one-a"),
		row("DOC0002", 1, "two-a"),
	}
	require.NoError(t, store.Save(ctx, table))

	rows, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, row("DOC0001", 1, "one-a"), rows[0])
	assert.Equal(t, "DOC0002_C01", rows[1].ChunkID)
	assert.Equal(t, "DOC0002_C02", rows[2].ChunkID)

	has, err = store.HasAnyRows(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStore_Integration_FailedSaveKeepsTable(t *testing.T) {
	store := connectTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.RowTable{row("DOC0001", 1, "keep")}))

	err := store.Save(ctx, domain.RowTable{row("DOC0002", 1, "x"), row("DOC0002", 1, "y")})
	require.Error(t, err)

	rows, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "keep", rows[0].Text)
}
