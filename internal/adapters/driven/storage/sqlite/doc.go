// Package sqlite provides a unified SQLite-based implementation of the
// driven store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. A single database connection backs every store:
//
//   - DocumentStore: document metadata and heading-addressed sections
//   - RequirementStore: functional requirement groups and their selection
//   - TestCaseStore: generated suites and cases
//   - RunStore: generation run status
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Embeddings
//
// Section embeddings are stored as little-endian float32 blobs. Similarity
// search loads the candidate sections of a document and ranks them in
// process with cosine similarity.
//
// # Data Location
//
// By default, the database is stored at ~/.apiforge/data/apiforge.db
package sqlite
