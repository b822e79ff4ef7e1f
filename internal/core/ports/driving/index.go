package driving

import (
	"context"
	"time"
)

// IndexService controls the lifecycle of the semantic index.
type IndexService interface {
	// Warmup builds the index if it is not built yet.
	Warmup(ctx context.Context) error

	// Rebuild rebuilds the index from the row source, reusing the
	// loaded embedding model.
	Rebuild(ctx context.Context) error

	// Invalidate drops the index; the next search rebuilds it.
	Invalidate()

	// Status reports the current index state.
	Status() IndexStatus
}

// IndexStatus describes the semantic index.
type IndexStatus struct {
	Ready      bool      `json:"ready" yaml:"ready"`
	BuildID    string    `json:"build_id,omitempty" yaml:"build_id,omitempty"`
	Passages   int       `json:"passages" yaml:"passages"`
	Dimensions int       `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Model      string    `json:"model,omitempty" yaml:"model,omitempty"`
	Source     string    `json:"source" yaml:"source"`
	BuiltAt    time.Time `json:"built_at,omitempty" yaml:"built_at,omitempty"`
	Builds     int       `json:"builds" yaml:"builds"`
}
