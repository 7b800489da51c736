// Package llmclient defines the contract for the optional LLM-assisted
// mapping accelerator. The network-backed implementation is out of
// scope for this system (see spec's Non-goals); only the contract is
// defined here (callers with no provider pass a nil Client), so
// internal/proposer can depend on an interface without depending on a
// concrete provider.
package llmclient

import "context"

// MappingRequest carries everything the LLM needs to propose a column
// mapping for one table, mirroring
// original_source/src/llm_client.py's generate_mapping inputs.
type MappingRequest struct {
	SourceEngine string
	TargetEngine string
	Table        string
	Columns      []ColumnContext
	// Feedback carries the previous attempt's validation failure back
	// into the prompt, per spec's retry-with-feedback step. Empty on
	// the first attempt.
	Feedback string
}

// ColumnContext is one source column's catalog metadata, offered to the
// LLM as context.
type ColumnContext struct {
	Name          string
	SourceType    string
	CanonicalType string
	Nullable      bool
	IsPrimaryKey  bool
	Comment       string
}

// ColumnProposal is the LLM's suggested binding for one column.
type ColumnProposal struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	TargetType string `json:"target_type"`
	Role       string `json:"role,omitempty"`
}

// MappingResponse is the raw LLM output before validation.
type MappingResponse struct {
	TargetTable string           `json:"target_table"`
	Columns     []ColumnProposal `json:"columns"`
}

// Client is implemented by any LLM backend capable of proposing a
// mapping. Never a correctness-critical dependency: internal/proposer
// always has a deterministic rule-based fallback and must succeed
// end-to-end with Client == nil.
type Client interface {
	GenerateMapping(ctx context.Context, req MappingRequest) (*MappingResponse, error)
}
