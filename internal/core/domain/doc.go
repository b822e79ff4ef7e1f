// Package domain defines the core business entities for handbook.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChunkRow: One stored passage of a document
//   - RowTable: The full corpus as a flat table of chunk rows
//   - Document: A virtual entity made of every row sharing a doc_id
//   - SearchResult: A scored passage returned by the ranker
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
