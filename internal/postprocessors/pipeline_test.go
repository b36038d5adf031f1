package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// mockProcessor is a test processor that returns predefined sections.
type mockProcessor struct {
	name     string
	sections []domain.DocumentContent
	err      error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *domain.Document, sections []domain.DocumentContent) ([]domain.DocumentContent, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.sections != nil {
		return m.sections, nil
	}
	return sections, nil
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockProcessor{name: "test"})

	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
	if names := p.Names(); len(names) != 1 || names[0] != "test" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	p := NewPipeline()

	_, err := p.Process(context.Background(), nil)
	if err == nil {
		t.Error("expected error for nil document")
	}
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	p := NewPipeline()
	doc := &domain.Document{ID: "doc", Content: "text"}

	sections, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sections != nil {
		t.Errorf("expected nil sections from empty pipeline, got %v", sections)
	}
}

func TestPipeline_Process_RenumbersPositions(t *testing.T) {
	p := NewPipeline(&mockProcessor{name: "fixed", sections: []domain.DocumentContent{
		{ID: "a", Position: 7},
		{ID: "b", Position: 3},
	}})

	sections, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range sections {
		if s.Position != i {
			t.Errorf("section %s: expected position %d, got %d", s.ID, i, s.Position)
		}
	}
}

func TestPipeline_Process_Error(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&mockProcessor{name: "broken", err: boom})

	_, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if err.Error() != "processor broken: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestPipeline_Process_DefaultProcessors(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := r.BuildPipeline(domain.DefaultPipelineConfig())
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}

	doc := &domain.Document{
		ID:      "doc-1",
		Content: "Orders API\n1. Overview\nManage orders.\n1.1 Create order\nPOST /orders\n2. Limits\n",
	}
	sections, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	if sections[1].Heading != "<heading>1 - Overview" || sections[1].Text != "Manage orders." {
		t.Errorf("unexpected section %+v", sections[1])
	}
	want := "Title\n<heading>1 - Overview\n<heading>1.1 - Create order\n<heading>2 - Limits <no_content>\n"
	if doc.TableOfContents != want {
		t.Errorf("unexpected toc %q", doc.TableOfContents)
	}
}
