package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
	"github.com/custodia-labs/apiforge/internal/logger"
	"github.com/custodia-labs/apiforge/internal/normalisers"
)

type generateRequest struct {
	ProjectID string `json:"project_id"`
	Lang      string `json:"lang"`
}

type generateResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}

type selectionRequest struct {
	IDs      []string `json:"ids"`
	Selected *bool    `json:"selected"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type runResponse struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Lang       string     `json:"lang"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Groups     int        `json:"groups"`
	Generated  int        `json:"generated"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type documentResponse struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Name            string    `json:"name"`
	RawDocPath      string    `json:"raw_doc_path"`
	MIMEType        string    `json:"mime_type"`
	TableOfContents string    `json:"table_of_contents"`
	CreatedAt       time.Time `json:"created_at"`
}

type ingestResponse struct {
	Document          documentResponse      `json:"document"`
	Sections          int                   `json:"sections"`
	Blocks            int                   `json:"blocks"`
	Requirements      []requirementResponse `json:"requirements"`
	RequirementsError string                `json:"requirements_error,omitempty"`
}

type requirementResponse struct {
	ID         string `json:"id"`
	Group      string `json:"group"`
	Number     int    `json:"number"`
	IsSelected bool   `json:"is_selected"`
}

type suiteResponse struct {
	ID            string         `json:"id"`
	RequirementID string         `json:"requirement_id"`
	Name          string         `json:"name"`
	Lang          string         `json:"lang"`
	Method        string         `json:"method"`
	URL           string         `json:"url"`
	Cases         []caseResponse `json:"cases"`
	CreatedAt     time.Time      `json:"created_at"`
}

type caseResponse struct {
	ID       string          `json:"id"`
	Position int             `json:"position"`
	Payload  json.RawMessage `json:"payload"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate acknowledges a generation request and runs it in the
// background.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", domain.ErrInvalidInput, err))
		return
	}

	run, err := s.generation.Start(r.Context(), req.ProjectID, req.Lang)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, generateResponse{Status: "accepted", RunID: run.ID})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	run, err := s.generation.Status(r.Context(), mux.Vars(r)["run_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (s *Server) handleTestSuites(w http.ResponseWriter, r *http.Request) {
	suites, err := s.generation.TestSuites(r.Context(), mux.Vars(r)["project_id"])
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]suiteResponse, 0, len(suites))
	for _, sc := range suites {
		out = append(out, toSuiteResponse(sc))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUpload ingests the multipart "file" field synchronously.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		if tooLarge(r, err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("upload exceeds %d bytes", s.maxUpload),
			})
			return
		}
		writeError(w, fmt.Errorf("%w: read upload: %v", domain.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("%w: read upload: %v", domain.ErrInvalidInput, err))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = normalisers.DetectMIMEType(header.Filename)
	}

	result, err := s.ingest.Ingest(r.Context(), &domain.RawDocument{
		ProjectID: mux.Vars(r)["project_id"],
		Name:      header.Filename,
		URI:       header.Filename,
		MIMEType:  mimeType,
		Content:   content,
	})
	if err != nil && result == nil {
		writeError(w, err)
		return
	}

	resp := ingestResponse{
		Document:     toDocumentResponse(result.Document),
		Sections:     result.Sections,
		Blocks:       result.Blocks,
		Requirements: toRequirementResponses(result.Requirements),
	}
	if err != nil {
		logger.Warn("http: %s stored without requirements: %v", header.Filename, err)
		resp.RequirementsError = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ingest.ListDocuments(r.Context(), mux.Vars(r)["project_id"])
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	groups, err := s.requirements.List(r.Context(), mux.Vars(r)["project_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequirementResponses(groups))
}

func (s *Server) handleSelectRequirements(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", domain.ErrInvalidInput, err))
		return
	}
	if req.Selected == nil {
		writeError(w, fmt.Errorf("%w: selected is required", domain.ErrInvalidInput))
		return
	}

	if err := s.requirements.Select(r.Context(), req.IDs, *req.Selected); err != nil {
		writeError(w, err)
		return
	}
	s.handleListRequirements(w, r)
}

func toRunResponse(run *domain.GenerationRun) runResponse {
	return runResponse{
		ID:         run.ID,
		ProjectID:  run.ProjectID,
		Lang:       run.Lang,
		Status:     string(run.Status),
		Error:      run.Error,
		Groups:     run.Groups,
		Generated:  run.Generated,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

func toDocumentResponse(d domain.DocumentMetadata) documentResponse {
	return documentResponse{
		ID:              d.ID,
		ProjectID:       d.ProjectID,
		Name:            d.Name,
		RawDocPath:      d.RawDocPath,
		MIMEType:        d.MIMEType,
		TableOfContents: d.TableOfContents,
		CreatedAt:       d.CreatedAt,
	}
}

func toRequirementResponses(groups []domain.FunctionalRequirementGroup) []requirementResponse {
	out := make([]requirementResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, requirementResponse{
			ID:         g.ID,
			Group:      g.Group,
			Number:     g.Number,
			IsSelected: g.IsSelected,
		})
	}
	return out
}

func toSuiteResponse(sc driving.SuiteWithCases) suiteResponse {
	cases := make([]caseResponse, 0, len(sc.Cases))
	for _, c := range sc.Cases {
		cases = append(cases, caseResponse{ID: c.ID, Position: c.Position, Payload: c.Payload})
	}
	return suiteResponse{
		ID:            sc.Suite.ID,
		RequirementID: sc.Suite.RequirementID,
		Name:          sc.Suite.Name,
		Lang:          sc.Suite.Lang,
		Method:        string(sc.Suite.Method),
		URL:           sc.Suite.URL,
		Cases:         cases,
		CreatedAt:     sc.Suite.CreatedAt,
	}
}

// statusFor maps domain errors onto HTTP status codes.
// tooLarge reports whether reading the upload hit the body limit. The
// limited reader keeps failing once the limit is hit, which also covers
// parser errors that do not wrap it.
func tooLarge(r *http.Request, err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	_, err = r.Body.Read(make([]byte, 1))
	return errors.As(err, &maxErr)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrParseFailure):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedMIME), errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrDocumentMissing):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrLLMUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("http: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
