package orchestrator

import (
	"sync"

	"github.com/mohammad-safakhou/ctxmerge/internal/collectors"
	"github.com/mohammad-safakhou/ctxmerge/internal/merger"
)

// State is the phase a session has reached.
type State string

const (
	StatePlanning           State = "planning"
	StateNeedsConfirmation  State = "needs_confirmation"
	StateCollected          State = "collected"
	StateFinalized          State = "finalized"
	StateFinalizationFailed State = "finalization_failed"
)

// Request holds the caller's inputs for one merge session.
type Request struct {
	Query        string         `json:"query"`
	Task         string         `json:"task,omitempty"`
	URL          string         `json:"url,omitempty"`
	CustomerID   string         `json:"customer_id,omitempty"`
	DocumentPath string         `json:"document_path,omitempty"`
	Fields       map[string]any `json:"fields,omitempty"`
	TokenBudget  int            `json:"token_budget,omitempty"`
	// SelectedSources and SourceParams may already be known up front.
	SelectedSources []string                  `json:"selected_sources,omitempty"`
	SourceParams    map[string]map[string]any `json:"source_params,omitempty"`
}

// SourceSuggestion is one entry of the proposed source list.
type SourceSuggestion struct {
	ID      collectors.SourceID `json:"id"`
	Label   string              `json:"label"`
	Default bool                `json:"default"`
	Reason  string              `json:"reason"`
}

type PlanResult struct {
	Plan            map[string]any     `json:"plan"`
	ProposedSources []SourceSuggestion `json:"proposed_sources"`
	Status          State              `json:"status"`
}

type CollectResult struct {
	MergedContext string              `json:"merged_context"`
	Provenance    []merger.Provenance `json:"provenance"`
}

// Bundle is the final hand-off to the downstream generation step.
type Bundle struct {
	MergedContext   string              `json:"merged_context"`
	Fields          map[string]any      `json:"fields,omitempty"`
	Task            string              `json:"task"`
	Status          State               `json:"status"`
	Error           string              `json:"error,omitempty"`
	Provenance      []merger.Provenance `json:"provenance"`
	SelectedSources []string            `json:"selected_sources"`
}

// Session accumulates state across the three phases. Phases on one session
// are serialised.
type Session struct {
	ID      string
	Request Request

	mu         sync.Mutex
	state      State
	plan       *PlanResult
	selected   []string
	params     map[string]map[string]any
	merged     string
	provenance []merger.Provenance
}

func NewSession(id string, req Request) *Session {
	return &Session{
		ID:       id,
		Request:  req,
		state:    StatePlanning,
		selected: req.SelectedSources,
		params:   req.SourceParams,
	}
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Merged returns the collected text and its provenance.
func (s *Session) Merged() (string, []merger.Provenance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merged, append([]merger.Provenance(nil), s.provenance...)
}
