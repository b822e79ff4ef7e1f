// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RowSource: Loads and saves the full chunk row table (csv, sqlite, postgres, memory)
//   - EmbeddingService: Turns passages and queries into vectors
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - RowCounter: Implemented by relational row sources
//   - Extractor: Converts files into title and text for document import
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
