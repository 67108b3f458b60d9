// Package pipeline orchestrates a verification run: hybrid retrieval,
// evaluation against the local store, a confidence-gated web search
// fallback, best-effort write-back of web evidence, and final output.
package pipeline

import "github.com/ppiankov/veracity/internal/model"

// State identifies a step of the verification workflow
type State int

const (
	StateRetrieve State = iota
	StateEvaluateStore
	StateWebSearch
	StateEvaluateWeb
	StateSyncBack
	StateFormatOutput
	StateDone
)

// String reports the workflow step name
func (s State) String() string {
	switch s {
	case StateRetrieve:
		return "retrieve"
	case StateEvaluateStore:
		return "evaluate_store"
	case StateWebSearch:
		return "web_search"
	case StateEvaluateWeb:
		return "evaluate_web"
	case StateSyncBack:
		return "sync_back"
	case StateFormatOutput:
		return "format_output"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Transition computes the next workflow step from the current one and the
// run so far. It is a pure function of its inputs: the single branch is
// after store evaluation, where the run goes straight to output only when
// evidence was found AND confidence strictly exceeds the threshold. A
// confidence exactly at the threshold falls through to web search.
func Transition(s State, run *model.RunState, threshold float64) State {
	switch s {
	case StateRetrieve:
		return StateEvaluateStore
	case StateEvaluateStore:
		if run.EvidenceFound && run.Confidence > threshold {
			return StateFormatOutput
		}
		return StateWebSearch
	case StateWebSearch:
		return StateEvaluateWeb
	case StateEvaluateWeb:
		return StateSyncBack
	case StateSyncBack:
		return StateFormatOutput
	case StateFormatOutput:
		return StateDone
	default:
		return StateDone
	}
}
