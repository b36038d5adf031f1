package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/apiforge/internal/adapters/driven/storage/postgres/migrations"
	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

// foreignKeyViolation is the SQLSTATE for a failed REFERENCES check.
const foreignKeyViolation = "23503"

// Store is a PostgreSQL-backed storage that provides access to all store
// interfaces through wrapper types. Similarity search runs in the
// database through the pgvector cosine distance operator.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn, verifies the connection and applies pending
// migrations.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
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

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	files, err := upMigrations(fsys)
	if err != nil {
		return err
	}

	for _, m := range files {
		if m.version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", m.name, err)
		}
		if _, err := s.pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.name, err)
		}
	}
	return nil
}

type migration struct {
	version int
	name    string
}

// upMigrations lists "NNN_name.up.sql" files in version order.
func upMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var files []migration
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		files = append(files, migration{version: version, name: name})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// ==================== Document Store ====================

type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.DocumentMetadata) error {
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO documents (id, project_id, name, table_of_contents, raw_doc_path, mime_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			name = EXCLUDED.name,
			table_of_contents = EXCLUDED.table_of_contents,
			raw_doc_path = EXCLUDED.raw_doc_path,
			mime_type = EXCLUDED.mime_type
	`, doc.ID, doc.ProjectID, doc.Name, doc.TableOfContents, doc.RawDocPath, doc.MIMEType, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveContents sends every insert in one batch inside a transaction.
func (s *documentStore) SaveContents(ctx context.Context, contents []domain.DocumentContent) error {
	if len(contents) == 0 {
		return nil
	}

	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, c := range contents {
		batch.Queue(`
			INSERT INTO document_contents (id, document_id, heading, text, position, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				heading = EXCLUDED.heading,
				text = EXCLUDED.text,
				position = EXCLUDED.position,
				embedding = EXCLUDED.embedding
		`, c.ID, c.DocumentID, c.Heading, c.Text, c.Position, vectorParam(c.Embedding))
	}

	results := tx.SendBatch(ctx, batch)
	for range contents {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isForeignKeyViolation(err) {
				return fmt.Errorf("saving content: %w", domain.ErrDocumentMissing)
			}
			return fmt.Errorf("saving content: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.DocumentMetadata, error) {
	row := s.store.pool.QueryRow(ctx, `
		SELECT id, project_id, name, table_of_contents, raw_doc_path, mime_type, created_at
		FROM documents WHERE id = $1
	`, id)

	var doc domain.DocumentMetadata
	if err := row.Scan(&doc.ID, &doc.ProjectID, &doc.Name, &doc.TableOfContents,
		&doc.RawDocPath, &doc.MIMEType, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

func (s *documentStore) ListDocuments(ctx context.Context, projectID string) ([]domain.DocumentMetadata, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, project_id, name, table_of_contents, raw_doc_path, mime_type, created_at
		FROM documents WHERE project_id = $1
		ORDER BY created_at, name
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentMetadata
	for rows.Next() {
		var doc domain.DocumentMetadata
		if err := rows.Scan(&doc.ID, &doc.ProjectID, &doc.Name, &doc.TableOfContents,
			&doc.RawDocPath, &doc.MIMEType, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func (s *documentStore) GetDocumentIDByName(ctx context.Context, projectID, name string) (string, error) {
	var id string
	err := s.store.pool.QueryRow(ctx, `
		SELECT id FROM documents
		WHERE project_id = $1 AND name = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, projectID, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving document name: %w", err)
	}
	return id, nil
}

// GetContentByHeading joins the parts of a heading in the database.
// Embeddings are not loaded.
func (s *documentStore) GetContentByHeading(ctx context.Context, docID, heading string) (*domain.DocumentContent, error) {
	row := s.store.pool.QueryRow(ctx, `
		SELECT
			(array_agg(id ORDER BY position))[1],
			MIN(position),
			string_agg(text, E'\n' ORDER BY position)
		FROM document_contents
		WHERE document_id = $1 AND heading = $2
		HAVING COUNT(*) > 0
	`, docID, heading)

	c := domain.DocumentContent{DocumentID: docID, Heading: heading}
	if err := row.Scan(&c.ID, &c.Position, &c.Text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning content: %w", err)
	}
	return &c, nil
}

func (s *documentStore) SimilaritySearch(
	ctx context.Context, query []float32, projectID, docID string, topK int,
) ([]domain.DocumentContent, error) {
	if topK <= 0 || len(query) == 0 {
		return nil, nil
	}

	var (
		rows pgx.Rows
		err  error
	)
	vec := pgvector.NewVector(query)
	if docID != "" {
		rows, err = s.store.pool.Query(ctx, `
			SELECT id, document_id, heading, text, position
			FROM document_contents
			WHERE document_id = $2 AND embedding IS NOT NULL
			ORDER BY embedding <=> $1::vector, position
			LIMIT $3
		`, vec, docID, topK)
	} else {
		rows, err = s.store.pool.Query(ctx, `
			SELECT c.id, c.document_id, c.heading, c.text, c.position
			FROM document_contents c
			JOIN documents d ON d.id = c.document_id
			WHERE d.project_id = $2 AND c.embedding IS NOT NULL
			ORDER BY c.embedding <=> $1::vector, d.created_at, c.position
			LIMIT $3
		`, vec, projectID, topK)
	}
	if err != nil {
		return nil, fmt.Errorf("querying similar contents: %w", err)
	}
	defer rows.Close()

	var results []domain.DocumentContent
	for rows.Next() {
		var c domain.DocumentContent
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Heading, &c.Text, &c.Position); err != nil {
			return nil, fmt.Errorf("scanning content: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contents: %w", err)
	}
	return results, nil
}

func (s *documentStore) UpdateTableOfContents(ctx context.Context, docID, toc string) error {
	tag, err := s.store.pool.Exec(ctx,
		"UPDATE documents SET table_of_contents = $1 WHERE id = $2", toc, docID)
	if err != nil {
		return fmt.Errorf("updating table of contents: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.store.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Requirement Store ====================

type requirementStore struct {
	store *Store
}

var _ driven.RequirementStore = (*requirementStore)(nil)

func (s *requirementStore) SaveRequirements(ctx context.Context, groups []domain.FunctionalRequirementGroup) error {
	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, g := range groups {
		if _, err := tx.Exec(ctx, `
			INSERT INTO requirements (id, project_id, group_name, number, is_selected, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				group_name = EXCLUDED.group_name,
				number = EXCLUDED.number,
				is_selected = EXCLUDED.is_selected
		`, g.ID, g.ProjectID, g.Group, g.Number, g.IsSelected, g.CreatedAt); err != nil {
			return fmt.Errorf("saving requirement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *requirementStore) ListRequirements(ctx context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	return s.list(ctx, false, projectID)
}

func (s *requirementStore) ListSelected(ctx context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	return s.list(ctx, true, projectID)
}

func (s *requirementStore) list(ctx context.Context, selectedOnly bool, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, project_id, group_name, number, is_selected, created_at
		FROM requirements
		WHERE project_id = $1 AND (NOT $2 OR is_selected)
		ORDER BY number, created_at
	`, projectID, selectedOnly)
	if err != nil {
		return nil, fmt.Errorf("querying requirements: %w", err)
	}
	defer rows.Close()

	var groups []domain.FunctionalRequirementGroup
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

func (s *requirementStore) SetSelected(ctx context.Context, ids []string, selected bool) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		"UPDATE requirements SET is_selected = $1 WHERE id = ANY($2)", selected, ids)
	if err != nil {
		return fmt.Errorf("updating selection: %w", err)
	}
	if int(tag.RowsAffected()) != len(uniqueStrings(ids)) {
		return fmt.Errorf("requirements %v: %w", ids, domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Test Case Store ====================

type testCaseStore struct {
	store *Store
}

var _ driven.TestCaseStore = (*testCaseStore)(nil)

func (s *testCaseStore) SaveTestSuite(ctx context.Context, suite *domain.TestSuite) error {
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO test_suites (id, project_id, requirement_id, name, lang, method, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			lang = EXCLUDED.lang,
			method = EXCLUDED.method,
			url = EXCLUDED.url
	`, suite.ID, suite.ProjectID, suite.RequirementID, suite.Name, suite.Lang,
		string(suite.Method), suite.URL, suite.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving test suite: %w", err)
	}
	return nil
}

func (s *testCaseStore) SaveTestCases(ctx context.Context, cases []domain.TestCase) error {
	if len(cases) == 0 {
		return nil
	}

	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, c := range cases {
		batch.Queue(`
			INSERT INTO test_cases (id, suite_id, position, payload, created_at)
			VALUES ($1, $2, $3, $4::jsonb, $5)
			ON CONFLICT (id) DO UPDATE SET
				position = EXCLUDED.position,
				payload = EXCLUDED.payload
		`, c.ID, c.SuiteID, c.Position, string(c.Payload), c.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("saving test cases: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("saving test cases: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *testCaseStore) ListTestSuites(ctx context.Context, projectID string) ([]domain.TestSuite, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, project_id, requirement_id, name, lang, method, url, created_at
		FROM test_suites WHERE project_id = $1
		ORDER BY created_at, seq
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying test suites: %w", err)
	}
	defer rows.Close()

	var suites []domain.TestSuite
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

func (s *testCaseStore) ListTestCases(ctx context.Context, suiteID string) ([]domain.TestCase, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, suite_id, position, payload::text, created_at
		FROM test_cases WHERE suite_id = $1
		ORDER BY position
	`, suiteID)
	if err != nil {
		return nil, fmt.Errorf("querying test cases: %w", err)
	}
	defer rows.Close()

	var cases []domain.TestCase
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

type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

func (s *runStore) SaveRun(ctx context.Context, run *domain.GenerationRun) error {
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO generation_runs (id, project_id, lang, status, error, groups_total, generated, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			groups_total = EXCLUDED.groups_total,
			generated = EXCLUDED.generated,
			finished_at = EXCLUDED.finished_at
	`, run.ID, run.ProjectID, run.Lang, string(run.Status), run.Error,
		run.Groups, run.Generated, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

func (s *runStore) GetRun(ctx context.Context, id string) (*domain.GenerationRun, error) {
	var run domain.GenerationRun
	var status string
	err := s.store.pool.QueryRow(ctx, `
		SELECT id, project_id, lang, status, error, groups_total, generated, started_at, finished_at
		FROM generation_runs WHERE id = $1
	`, id).Scan(&run.ID, &run.ProjectID, &run.Lang, &status, &run.Error,
		&run.Groups, &run.Generated, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = domain.RunStatus(status)
	return &run, nil
}

// ==================== Helpers ====================

// vectorParam maps a missing embedding to SQL NULL.
func vectorParam(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
