package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/apiforge/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/vecmath"
)

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.apiforge/data/apiforge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".apiforge", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "apiforge.db")

	// WAL lets the HTTP handlers read while a generation run writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// RequirementStore returns a RequirementStore interface backed by this store.
func (s *Store) RequirementStore() driven.RequirementStore {
	return &requirementStore{store: s}
}

// TestCaseStore returns a TestCaseStore interface backed by this store.
func (s *Store) TestCaseStore() driven.TestCaseStore {
	return &testCaseStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations and records their versions.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates document metadata.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.DocumentMetadata) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, project_id, name, table_of_contents, raw_doc_path, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			name = excluded.name,
			table_of_contents = excluded.table_of_contents,
			raw_doc_path = excluded.raw_doc_path,
			mime_type = excluded.mime_type
	`, doc.ID, doc.ProjectID, doc.Name, doc.TableOfContents, doc.RawDocPath, doc.MIMEType, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveContents stores sections for a document in one transaction.
func (s *documentStore) SaveContents(ctx context.Context, contents []domain.DocumentContent) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_contents (id, document_id, heading, text, position, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			heading = excluded.heading,
			text = excluded.text,
			position = excluded.position,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range contents {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Heading, c.Text,
			c.Position, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("saving content: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves document metadata by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.DocumentMetadata, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, table_of_contents, raw_doc_path, mime_type, created_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// ListDocuments returns the documents of a project, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context, projectID string) ([]domain.DocumentMetadata, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, name, table_of_contents, raw_doc_path, mime_type, created_at
		FROM documents WHERE project_id = ?
		ORDER BY created_at, name
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentMetadata //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// GetDocumentIDByName resolves a document name within a project. When a
// name was uploaded twice the most recent document wins.
func (s *documentStore) GetDocumentIDByName(ctx context.Context, projectID, name string) (string, error) {
	var id string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT id FROM documents
		WHERE project_id = ? AND name = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, projectID, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving document name: %w", err)
	}
	return id, nil
}

// GetContentByHeading returns the section stored under heading. Sections
// split into several parts are joined back in position order.
func (s *documentStore) GetContentByHeading(ctx context.Context, docID, heading string) (*domain.DocumentContent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, heading, text, position, embedding
		FROM document_contents
		WHERE document_id = ? AND heading = ?
		ORDER BY position
	`, docID, heading)
	if err != nil {
		return nil, fmt.Errorf("querying contents: %w", err)
	}
	defer rows.Close()

	var parts []domain.DocumentContent
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contents: %w", err)
	}

	if len(parts) == 0 {
		return nil, domain.ErrNotFound
	}
	return joinParts(parts), nil
}

// SimilaritySearch ranks the sections of a document, or of the whole
// project when docID is empty, by cosine similarity to query.
func (s *documentStore) SimilaritySearch(
	ctx context.Context, query []float32, projectID, docID string, topK int,
) ([]domain.DocumentContent, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if docID != "" {
		rows, err = s.store.db.QueryContext(ctx, `
			SELECT id, document_id, heading, text, position, embedding
			FROM document_contents
			WHERE document_id = ? AND embedding IS NOT NULL
			ORDER BY position
		`, docID)
	} else {
		rows, err = s.store.db.QueryContext(ctx, `
			SELECT c.id, c.document_id, c.heading, c.text, c.position, c.embedding
			FROM document_contents c
			JOIN documents d ON d.id = c.document_id
			WHERE d.project_id = ? AND c.embedding IS NOT NULL
			ORDER BY d.created_at, c.position
		`, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying contents: %w", err)
	}
	defer rows.Close()

	var candidates []domain.DocumentContent
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contents: %w", err)
	}

	return rank(query, candidates, topK), nil
}

// UpdateTableOfContents replaces the stored table of contents.
func (s *documentStore) UpdateTableOfContents(ctx context.Context, docID, toc string) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET table_of_contents = ? WHERE id = ?", toc, docID)
	if err != nil {
		return fmt.Errorf("updating table of contents: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document and, through the foreign key, its sections.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Requirement Store ====================

// requirementStore implements driven.RequirementStore.
type requirementStore struct {
	store *Store
}

var _ driven.RequirementStore = (*requirementStore)(nil)

// SaveRequirements stores or updates groups in one transaction.
func (s *requirementStore) SaveRequirements(ctx context.Context, groups []domain.FunctionalRequirementGroup) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO requirements (id, project_id, group_name, number, is_selected, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			group_name = excluded.group_name,
			number = excluded.number,
			is_selected = excluded.is_selected
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, g := range groups {
		if _, err := stmt.ExecContext(ctx, g.ID, g.ProjectID, g.Group, g.Number,
			g.IsSelected, g.CreatedAt); err != nil {
			return fmt.Errorf("saving requirement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListRequirements returns every group of a project ordered by number.
func (s *requirementStore) ListRequirements(ctx context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	return s.list(ctx, `
		SELECT id, project_id, group_name, number, is_selected, created_at
		FROM requirements WHERE project_id = ?
		ORDER BY number, created_at
	`, projectID)
}

// ListSelected returns the selected groups of a project ordered by number.
func (s *requirementStore) ListSelected(ctx context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	return s.list(ctx, `
		SELECT id, project_id, group_name, number, is_selected, created_at
		FROM requirements WHERE project_id = ? AND is_selected = 1
		ORDER BY number, created_at
	`, projectID)
}

func (s *requirementStore) list(ctx context.Context, query string, args ...any) ([]domain.FunctionalRequirementGroup, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying requirements: %w", err)
	}
	defer rows.Close()

	var groups []domain.FunctionalRequirementGroup //nolint:prealloc // size unknown from query
	for rows.Next() {
		var g domain.FunctionalRequirementGroup
		if err := rows.Scan(&g.ID, &g.ProjectID, &g.Group, &g.Number, &g.IsSelected, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning requirement: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating requirements: %w", err)
	}
	return groups, nil
}

// SetSelected updates the selection flag of the given groups.
func (s *requirementStore) SetSelected(ctx context.Context, ids []string, selected bool) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "UPDATE requirements SET is_selected = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, selected, id)
		if err != nil {
			return fmt.Errorf("updating selection: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("requirement %s: %w", id, domain.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Test Case Store ====================

// testCaseStore implements driven.TestCaseStore.
type testCaseStore struct {
	store *Store
}

var _ driven.TestCaseStore = (*testCaseStore)(nil)

// SaveTestSuite stores a suite header.
func (s *testCaseStore) SaveTestSuite(ctx context.Context, suite *domain.TestSuite) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO test_suites (id, project_id, requirement_id, name, lang, method, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			lang = excluded.lang,
			method = excluded.method,
			url = excluded.url
	`, suite.ID, suite.ProjectID, suite.RequirementID, suite.Name, suite.Lang,
		string(suite.Method), suite.URL, suite.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving test suite: %w", err)
	}
	return nil
}

// SaveTestCases stores a batch of cases in one transaction.
func (s *testCaseStore) SaveTestCases(ctx context.Context, cases []domain.TestCase) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO test_cases (id, suite_id, position, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position,
			payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range cases {
		if _, err := stmt.ExecContext(ctx, c.ID, c.SuiteID, c.Position,
			string(c.Payload), c.CreatedAt); err != nil {
			return fmt.Errorf("saving test case: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListTestSuites returns the suites of a project, oldest first.
func (s *testCaseStore) ListTestSuites(ctx context.Context, projectID string) ([]domain.TestSuite, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, project_id, requirement_id, name, lang, method, url, created_at
		FROM test_suites WHERE project_id = ?
		ORDER BY created_at, rowid
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying test suites: %w", err)
	}
	defer rows.Close()

	var suites []domain.TestSuite //nolint:prealloc // size unknown from query
	for rows.Next() {
		var suite domain.TestSuite
		var method string
		if err := rows.Scan(&suite.ID, &suite.ProjectID, &suite.RequirementID, &suite.Name,
			&suite.Lang, &method, &suite.URL, &suite.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning test suite: %w", err)
		}
		suite.Method = domain.HTTPMethod(method)
		suites = append(suites, suite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating test suites: %w", err)
	}
	return suites, nil
}

// ListTestCases returns the cases of a suite in position order.
func (s *testCaseStore) ListTestCases(ctx context.Context, suiteID string) ([]domain.TestCase, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, suite_id, position, payload, created_at
		FROM test_cases WHERE suite_id = ?
		ORDER BY position
	`, suiteID)
	if err != nil {
		return nil, fmt.Errorf("querying test cases: %w", err)
	}
	defer rows.Close()

	var cases []domain.TestCase //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.TestCase
		var payload string
		if err := rows.Scan(&c.ID, &c.SuiteID, &c.Position, &payload, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning test case: %w", err)
		}
		c.Payload = []byte(payload)
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating test cases: %w", err)
	}
	return cases, nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun stores or updates a run.
func (s *runStore) SaveRun(ctx context.Context, run *domain.GenerationRun) error {
	var finishedAt sql.NullTime
	if run.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: *run.FinishedAt, Valid: true}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO generation_runs (id, project_id, lang, status, error, groups_total, generated, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			groups_total = excluded.groups_total,
			generated = excluded.generated,
			finished_at = excluded.finished_at
	`, run.ID, run.ProjectID, run.Lang, string(run.Status), run.Error,
		run.Groups, run.Generated, run.StartedAt, finishedAt)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *runStore) GetRun(ctx context.Context, id string) (*domain.GenerationRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, project_id, lang, status, error, groups_total, generated, started_at, finished_at
		FROM generation_runs WHERE id = ?
	`, id)

	var run domain.GenerationRun
	var status string
	var finishedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.ProjectID, &run.Lang, &status, &run.Error,
		&run.Groups, &run.Generated, &run.StartedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// ==================== Helpers ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.DocumentMetadata, error) {
	var doc domain.DocumentMetadata
	if err := row.Scan(&doc.ID, &doc.ProjectID, &doc.Name, &doc.TableOfContents,
		&doc.RawDocPath, &doc.MIMEType, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

func scanContent(row scanner) (*domain.DocumentContent, error) {
	var c domain.DocumentContent
	var embeddingBlob []byte
	if err := row.Scan(&c.ID, &c.DocumentID, &c.Heading, &c.Text, &c.Position, &embeddingBlob); err != nil {
		return nil, fmt.Errorf("scanning content: %w", err)
	}
	c.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &c, nil
}

// joinParts folds the parts of one heading into a single section carrying
// the identity of the first part.
func joinParts(parts []domain.DocumentContent) *domain.DocumentContent {
	joined := parts[0]
	if len(parts) == 1 {
		return &joined
	}
	texts := make([]string, len(parts))
	for i, p := range parts {
		texts[i] = p.Text
	}
	joined.Text = strings.Join(texts, "\n")
	return &joined
}

func rank(query []float32, candidates []domain.DocumentContent, topK int) []domain.DocumentContent {
	vectors := make([][]float32, len(candidates))
	for i, c := range candidates {
		vectors[i] = c.Embedding
	}

	scored := vecmath.TopK(query, vectors, topK)
	results := make([]domain.DocumentContent, len(scored))
	for i, sc := range scored {
		results[i] = candidates[sc.Index]
	}
	return results
}

// float32SliceToBytes converts []float32 to a little-endian byte slice.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
