// Package postgres provides a PostgreSQL implementation of the driven store
// ports, using pgx for connectivity and the pgvector extension for section
// embeddings.
//
// Similarity search runs in the database with the cosine distance operator
// (<=>), so section embeddings are written but never read back. The schema is
// applied from embedded migrations on connect and requires the vector
// extension to be installable by the connecting role.
package postgres
