package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/handbook/internal/core/domain"
	"github.com/custodia-labs/handbook/internal/core/ports/driven"
	"github.com/custodia-labs/handbook/internal/core/ports/driving"
	"github.com/custodia-labs/handbook/internal/logger"
)

// Ensure Index implements the interface.
var _ driving.IndexService = (*Index)(nil)

// DefaultBatchSize is the number of passages embedded per request.
const DefaultBatchSize = 64

// ModelLoader opens the embedding model. It is called at most once per
// Index unless the load fails.
type ModelLoader func(ctx context.Context) (driven.EmbeddingService, error)

// IndexState is a built index. It is never modified once installed.
type IndexState struct {
	// BuildID identifies this build.
	BuildID string

	// Model embeds queries against this build.
	Model driven.EmbeddingService

	// Rows is the table snapshot the matrix was built from.
	Rows domain.RowTable

	// Matrix holds one unit-length vector per row, in row order.
	Matrix [][]float32

	// BuiltAt records when the build finished.
	BuiltAt time.Time
}

// Dimensions returns the vector width, or zero for an empty index.
func (s *IndexState) Dimensions() int {
	if s == nil || len(s.Matrix) == 0 {
		return 0
	}
	return len(s.Matrix[0])
}

func (s *IndexState) consistent() bool {
	return s != nil && s.Model != nil && len(s.Matrix) == len(s.Rows)
}

// Index owns the embedding cache and the lock that serialises every
// change to the row source.
type Index struct {
	mu        sync.RWMutex
	source    driven.RowSource
	loader    ModelLoader
	model     driven.EmbeddingService
	state     *IndexState
	batchSize int
	builds    int
	now       func() time.Time
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithBatchSize sets how many passages are embedded per request.
func WithBatchSize(n int) IndexOption {
	return func(ix *Index) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithIndexClock overrides the clock used for BuiltAt.
func WithIndexClock(now func() time.Time) IndexOption {
	return func(ix *Index) {
		if now != nil {
			ix.now = now
		}
	}
}

// NewIndex creates an unbuilt index over source.
func NewIndex(source driven.RowSource, loader ModelLoader, opts ...IndexOption) *Index {
	ix := &Index{
		source:    source,
		loader:    loader,
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Source returns the row source the index is built from.
func (ix *Index) Source() driven.RowSource {
	return ix.source
}

// EnsureBuilt returns the installed state, building it first when the
// index is empty or inconsistent.
func (ix *Index) EnsureBuilt(ctx context.Context) (*IndexState, error) {
	ix.mu.RLock()
	state := ix.state
	ix.mu.RUnlock()
	if state.consistent() {
		return state, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.state.consistent() {
		return ix.state, nil
	}
	return ix.build(ctx)
}

// ForceRebuild builds a fresh state, reusing the loaded model.
func (ix *Index) ForceRebuild(ctx context.Context) (*IndexState, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.build(ctx)
}

// Invalidate drops the installed state. The model stays loaded.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.invalidateLocked()
}

func (ix *Index) invalidateLocked() {
	if ix.state != nil {
		logger.Debug("index: invalidated build %s", ix.state.BuildID)
	}
	ix.state = nil
}

// Warmup builds the index if needed.
func (ix *Index) Warmup(ctx context.Context) error {
	_, err := ix.EnsureBuilt(ctx)
	return err
}

// Rebuild forces a new build.
func (ix *Index) Rebuild(ctx context.Context) error {
	_, err := ix.ForceRebuild(ctx)
	return err
}

// Status reports the installed state.
func (ix *Index) Status() driving.IndexStatus {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	status := driving.IndexStatus{
		Source: ix.source.Location(),
		Builds: ix.builds,
	}
	if ix.model != nil {
		status.Model = ix.model.ModelName()
	}
	if st := ix.state; st.consistent() {
		status.Ready = true
		status.BuildID = st.BuildID
		status.Passages = len(st.Rows)
		status.Dimensions = st.Dimensions()
		status.BuiltAt = st.BuiltAt
	}
	return status
}

// Mutate runs fn under the write lock and invalidates the index when fn
// succeeds. Every change to the row source goes through here.
func (ix *Index) Mutate(ctx context.Context, fn func(ctx context.Context, source driven.RowSource) error) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := fn(ctx, ix.source); err != nil {
		return err
	}
	ix.invalidateLocked()
	return nil
}

// View runs fn under the read lock. No mutation or build overlaps it.
func (ix *Index) View(ctx context.Context, fn func(ctx context.Context, source driven.RowSource) error) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return fn(ctx, ix.source)
}

// Close releases the loaded model.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.state = nil
	if ix.model == nil {
		return nil
	}
	err := ix.model.Close()
	ix.model = nil
	return err
}

// build replaces the state. Callers hold the write lock. On failure the
// previous state is kept.
func (ix *Index) build(ctx context.Context) (*IndexState, error) {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()
	logger.Section("Index Build")

	model, err := ix.loadModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load model: %w", domain.ErrIndexBuild, err)
	}

	rows, err := ix.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load rows from %s: %w", domain.ErrIndexBuild, ix.source.Location(), err)
	}
	logger.Debug("index: loaded %d passages from %s", len(rows), ix.source.Location())

	matrix, err := ix.embedRows(ctx, model, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexBuild, err)
	}

	state := &IndexState{
		BuildID: uuid.NewString(),
		Model:   model,
		Rows:    rows,
		Matrix:  matrix,
		BuiltAt: ix.now(),
	}
	ix.state = state
	ix.builds++
	logger.Info("index: build %s ready with %d passages in %s", state.BuildID, len(rows), time.Since(started).Round(time.Millisecond))
	return state, nil
}

func (ix *Index) loadModel(ctx context.Context) (driven.EmbeddingService, error) {
	if ix.model != nil {
		return ix.model, nil
	}
	if ix.loader == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	model, err := ix.loader(ctx)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	logger.Debug("index: loaded model %s", model.ModelName())
	ix.model = model
	return model, nil
}

var errDimensionMismatch = errors.New("embedding dimensions differ")

func (ix *Index) embedRows(ctx context.Context, model driven.EmbeddingService, rows domain.RowTable) ([][]float32, error) {
	matrix := make([][]float32, 0, len(rows))
	for start := 0; start < len(rows); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		passages := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			passages = append(passages, PreparePassage(rows[i].Text))
		}

		vectors, err := model.EmbedBatch(ctx, passages)
		if err != nil {
			return nil, fmt.Errorf("embed passages %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(passages) {
			return nil, fmt.Errorf("embed passages %d-%d: got %d vectors for %d passages",
				start, end-1, len(vectors), len(passages))
		}
		for i, vec := range vectors {
			if len(vec) == 0 || (len(matrix) > 0 && len(vec) != len(matrix[0])) {
				return nil, fmt.Errorf("passage %d: %w", start+i, errDimensionMismatch)
			}
			matrix = append(matrix, normalize(vec))
		}
		logger.Debug("index: embedded %d/%d passages", len(matrix), len(rows))
	}
	return matrix, nil
}
