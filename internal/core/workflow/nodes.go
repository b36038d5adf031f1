package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/logger"
	"github.com/custodia-labs/apiforge/internal/sectioning"
)

// Node names.
const (
	NodePrepare     = "prepare"
	NodeDispatch    = "dispatch"
	NodeCollect     = "collect"
	NodeStandardize = "standardize"
	NodeGenerate    = "generate"
)

// Cache operation names.
const (
	opCollect     = "workflow.collect"
	opStandardize = "workflow.standardize"
	opGenerate    = "workflow.generate"
)

// Prepare loads the selected requirement groups and the combined table
// of contents of every project document.
func Prepare(d *Deps) NodeFunc {
	return func(ctx context.Context, s *domain.GenerationState) error {
		groups, err := d.Requirements.ListSelected(ctx, s.ProjectID)
		if err != nil {
			return fmt.Errorf("load requirement groups: %w", err)
		}
		docs, err := d.Documents.ListDocuments(ctx, s.ProjectID)
		if err != nil {
			return fmt.Errorf("load documents: %w", err)
		}

		var b strings.Builder
		for _, doc := range docs {
			fmt.Fprintf(&b, "### Document: %s\n%s\n", doc.Name, doc.TableOfContents)
		}

		s.DocsTOC = b.String()
		s.FRInfos = groups
		s.FRGroups = make([]string, len(groups))
		for i, g := range groups {
			s.FRGroups[i] = g.Group
		}

		logger.Info("prepared %d requirement groups across %d documents", len(groups), len(docs))
		return nil
	}
}

// Dispatch advances to the next requirement group, or marks the run
// completed and flushes results when none remain.
func Dispatch(d *Deps) NodeFunc {
	return func(ctx context.Context, s *domain.GenerationState) error {
		if s.CurrentIndex < len(s.FRInfos)-1 {
			s.CurrentIndex++
			s.Progress = domain.ProgressInProgress
			return nil
		}

		s.Progress = domain.ProgressCompleted
		if s.Flushed {
			return nil
		}
		if err := flush(ctx, d, s); err != nil {
			return fmt.Errorf("flush results: %w", err)
		}
		s.Flushed = true
		return nil
	}
}

// flush persists every suite and its cases in requirement order.
func flush(ctx context.Context, d *Deps, s *domain.GenerationState) error {
	for _, fr := range s.FRInfos {
		info, ok := s.TestCaseInfos[fr.ID]
		if !ok || info.TestSuite == nil {
			continue
		}
		if err := d.TestCases.SaveTestSuite(ctx, info.TestSuite); err != nil {
			return fmt.Errorf("save suite %q: %w", info.TestSuite.Name, err)
		}
		if len(info.TestCases) == 0 {
			continue
		}
		if err := d.TestCases.SaveTestCases(ctx, info.TestCases); err != nil {
			return fmt.Errorf("save cases of %q: %w", info.TestSuite.Name, err)
		}
	}
	return nil
}

// RouteProgress routes on the run progress.
func RouteProgress(s *domain.GenerationState) string {
	return string(s.Progress)
}

// current returns the group being processed and checks that the work
// queue head agrees with the dispatch index.
func current(s *domain.GenerationState) (domain.FunctionalRequirementGroup, error) {
	fr, ok := s.CurrentFR()
	if !ok {
		return fr, fmt.Errorf("%w: no group at index %d", domain.ErrStateDrift, s.CurrentIndex)
	}
	if len(s.FRGroups) == 0 || s.FRGroups[0] != fr.Group {
		head := ""
		if len(s.FRGroups) > 0 {
			head = s.FRGroups[0]
		}
		return fr, fmt.Errorf("%w: queue head %q, index points at %q", domain.ErrStateDrift, head, fr.Group)
	}
	return fr, nil
}

// Collect asks the model which headings cover the current group and
// gathers their content from the document store.
func Collect(d *Deps) NodeFunc {
	return func(ctx context.Context, s *domain.GenerationState) error {
		fr, err := current(s)
		if err != nil {
			return err
		}

		prompt, err := d.Prompts.Load(driven.PromptCollect)
		if err != nil {
			return fmt.Errorf("load prompt: %w", err)
		}
		input := fmt.Sprintf("Functional requirement: %s\n\nTable of contents:\n%s", fr.Group, s.DocsTOC)

		out, err := d.complete(ctx, opCollect, prompt, input, false)
		if err != nil {
			return fmt.Errorf("select headings for %q: %w", fr.Group, err)
		}

		var selection map[string][]string
		if err := ExtractJSON(out, &selection); err != nil {
			return fmt.Errorf("select headings for %q: %w", fr.Group, err)
		}

		names := make([]string, 0, len(selection))
		for name := range selection {
			names = append(names, name)
		}
		sort.Strings(names)

		var b strings.Builder
		for _, name := range names {
			docID, err := d.Documents.GetDocumentIDByName(ctx, s.ProjectID, name)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %q", domain.ErrDocumentMissing, name)
			}
			if err != nil {
				return fmt.Errorf("resolve document %q: %w", name, err)
			}

			for _, heading := range selection[name] {
				content, err := lookup(ctx, d, s.ProjectID, docID, heading)
				if err != nil {
					return fmt.Errorf("look up %q in %q: %w", heading, name, err)
				}
				if content == nil {
					logger.Warn("collect: no content for %q in %q, skipping", heading, name)
					continue
				}
				b.WriteString(content.Heading)
				b.WriteString("\n")
				b.WriteString(stripLeadingHeading(content.Text, content.Heading, d.Annotation))
				b.WriteString("\n\n")
			}
		}

		s.Collected[fr.ID] = b.String()
		logger.Debug("collected %d bytes for %q", b.Len(), fr.Group)
		return nil
	}
}

// lookup resolves a heading exactly, then falls back to the closest
// section of the same document. A nil result means nothing was found.
func lookup(ctx context.Context, d *Deps, projectID, docID, heading string) (*domain.DocumentContent, error) {
	cleaned := sectioning.TOCHeading(heading)
	if cleaned == "" {
		return nil, nil
	}

	for _, candidate := range headingCandidates(cleaned, d.Annotation) {
		content, err := d.Documents.GetContentByHeading(ctx, docID, candidate)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if d.Embedder == nil {
		return nil, nil
	}

	query := strings.TrimSpace(strings.TrimPrefix(cleaned, d.Annotation))
	vec, err := d.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed heading: %w", err)
	}
	results, err := d.Documents.SimilaritySearch(ctx, vec, projectID, docID, 1)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	logger.Warn("collect: heading %q not found, using closest section %q", heading, results[0].Heading)
	return &results[0], nil
}

// headingCandidates lists the stored forms a heading may take, most
// literal first.
func headingCandidates(heading, annotation string) []string {
	seen := make(map[string]bool, 3)
	var out []string
	add := func(h string) {
		if h != "" && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}

	add(heading)
	if !strings.HasPrefix(heading, annotation) {
		add(annotation + heading)
	}
	add(sectioning.HeadingKey(heading, annotation))
	return out
}

// stripLeadingHeading drops a first line that repeats the heading.
func stripLeadingHeading(text, heading, annotation string) string {
	first, rest, found := strings.Cut(text, "\n")
	line := strings.TrimSpace(first)
	h := strings.TrimSpace(heading)
	if line == h || line == strings.TrimSpace(strings.TrimPrefix(h, annotation)) {
		if !found {
			return ""
		}
		return rest
	}
	return text
}

// Standardize turns the collected text into an API description. Only the
// first attempt may be answered from the cache.
func Standardize(d *Deps) NodeFunc {
	return func(ctx context.Context, s *domain.GenerationState) error {
		fr, err := current(s)
		if err != nil {
			return err
		}
		collected, ok := s.Collected[fr.ID]
		if !ok {
			return fmt.Errorf("%w: nothing collected for %q", domain.ErrStateDrift, fr.Group)
		}

		prompt, err := d.Prompts.Load(driven.PromptStandardize)
		if err != nil {
			return fmt.Errorf("load prompt: %w", err)
		}

		var lastErr error
		for attempt := 1; attempt <= d.StandardizeAttempts; attempt++ {
			if attempt > 1 {
				if err := sleep(ctx, d.Backoff(attempt-1)); err != nil {
					return err
				}
			}

			out, err := d.complete(ctx, opStandardize, prompt, collected, attempt > 1)
			if err != nil {
				return fmt.Errorf("standardize %q: %w", fr.Group, err)
			}

			info, err := ExtractAPIInfo(out)
			if err == nil {
				s.Standardized[fr.ID] = out
				s.Info(fr.ID).APIInfo = info
				return nil
			}

			lastErr = err
			logger.Warn("standardize %q: attempt %d/%d: %v", fr.Group, attempt, d.StandardizeAttempts, err)
		}

		return fmt.Errorf("standardize %q after %d attempts: %w", fr.Group, d.StandardizeAttempts, lastErr)
	}
}

// Generate produces one test case for the current group and pops it off
// the work queue.
func Generate(d *Deps) NodeFunc {
	return func(ctx context.Context, s *domain.GenerationState) error {
		fr, err := current(s)
		if err != nil {
			return err
		}
		standardized, ok := s.Standardized[fr.ID]
		if !ok {
			return fmt.Errorf("%w: %q was not standardized", domain.ErrStateDrift, fr.Group)
		}

		prompt, err := d.Prompts.Load(driven.PromptGenerate)
		if err != nil {
			return fmt.Errorf("load prompt: %w", err)
		}
		if strings.Contains(prompt, "%s") {
			prompt = fmt.Sprintf(prompt, s.Lang)
		}

		info := s.Info(fr.ID)
		apiJSON, err := json.Marshal(info.APIInfo)
		if err != nil {
			return fmt.Errorf("encode api info: %w", err)
		}
		input := fmt.Sprintf("%s\n\nAPI info:\n%s\n\nLanguage: %s", standardized, apiJSON, s.Lang)

		out, err := d.complete(ctx, opGenerate, prompt, input, false)
		if err != nil {
			return fmt.Errorf("generate %q: %w", fr.Group, err)
		}
		payload, err := ExtractTestCase(out)
		if err != nil {
			return fmt.Errorf("generate %q: %w", fr.Group, err)
		}

		now := d.Now()
		if info.TestSuite == nil {
			info.TestSuite = &domain.TestSuite{
				ID:            d.NewID(),
				ProjectID:     s.ProjectID,
				RequirementID: fr.ID,
				Name:          fr.Group,
				Lang:          s.Lang,
				Method:        info.APIInfo.Method,
				URL:           info.APIInfo.URL,
				CreatedAt:     now,
			}
		}
		info.TestCases = append(info.TestCases, domain.TestCase{
			ID:        d.NewID(),
			SuiteID:   info.TestSuite.ID,
			Position:  len(info.TestCases),
			Payload:   payload,
			CreatedAt: now,
		})
		s.TestCases = append(s.TestCases, payload)
		s.FRGroups = s.FRGroups[1:]

		logger.Info("generated test case for %q (%d/%d)", fr.Group, s.CurrentIndex+1, len(s.FRInfos))
		return nil
	}
}
