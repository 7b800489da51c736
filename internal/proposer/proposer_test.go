package proposer

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dbmig/internal/llmclient"
	"dbmig/internal/model"
)

func sampleSpec() *model.TableSpec {
	return &model.TableSpec{
		Name: "orders",
		Columns: []model.ColumnSpec{
			{Name: "id", CanonicalType: "INT8", IsPrimaryKey: true},
			{Name: "total", CanonicalType: "DECIMAL", Precision: 10, Scale: 2},
			{Name: "note", CanonicalType: "TEXT", Length: 200},
		},
	}
}

func TestFallbackMappingCoversEveryColumn(t *testing.T) {
	mapping, _ := FallbackMapping(sampleSpec())
	if len(mapping.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(mapping.Columns))
	}
	if mapping.ProposedBy != "rules" {
		t.Errorf("ProposedBy = %q, want rules", mapping.ProposedBy)
	}
	for _, c := range mapping.Columns {
		if c.TargetType == "" {
			t.Errorf("column %s has empty target type", c.Source)
		}
	}
}

func TestProposeWithNilClientUsesFallback(t *testing.T) {
	p := New(nil, 0, 3, zap.NewNop())
	mapping, err := p.Propose(context.Background(), sampleSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mapping.ProposedBy != "rules" {
		t.Errorf("expected rule-based mapping when client is nil, got %q", mapping.ProposedBy)
	}
}

type failingClient struct{}

func (failingClient) GenerateMapping(ctx context.Context, req llmclient.MappingRequest) (*llmclient.MappingResponse, error) {
	return nil, errors.New("connection refused")
}

func TestProposeFallsBackWhenLLMErrors(t *testing.T) {
	p := New(failingClient{}, 0, 1, zap.NewNop())
	mapping, err := p.Propose(context.Background(), sampleSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mapping.ProposedBy != "rules" {
		t.Errorf("expected fallback after LLM error, got %q", mapping.ProposedBy)
	}
}

type badGrammarClient struct{}

func (badGrammarClient) GenerateMapping(ctx context.Context, req llmclient.MappingRequest) (*llmclient.MappingResponse, error) {
	cols := make([]llmclient.ColumnProposal, len(req.Columns))
	for i, c := range req.Columns {
		cols[i] = llmclient.ColumnProposal{Source: c.Name, Target: c.Name, TargetType: "NOT_A_TYPE"}
	}
	return &llmclient.MappingResponse{TargetTable: req.Table, Columns: cols}, nil
}

func TestProposeFallsBackOnInvalidGrammar(t *testing.T) {
	p := New(badGrammarClient{}, 0, 0, zap.NewNop())
	mapping, err := p.Propose(context.Background(), sampleSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mapping.ProposedBy != "rules" {
		t.Errorf("expected fallback after invalid grammar, got %q", mapping.ProposedBy)
	}
}
