package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/veracity/internal/llm"
	"github.com/ppiankov/veracity/internal/model"
)

// EvidenceRetriever returns the ranked evidence set for a claim
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, query string) ([]model.EvidenceChunk, error)
}

// WebSearcher queries the web search fallback
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]model.WebResult, error)
}

// PageEnricher upgrades search snippets to full page text where allowed
type PageEnricher interface {
	Enrich(ctx context.Context, results []model.WebResult) []model.WebResult
}

// EvidenceSyncer schedules web evidence for write-back into the store
type EvidenceSyncer interface {
	Enqueue(results []model.WebResult, query string)
}

// Verifier runs the verification workflow for one claim at a time.
// It is safe for concurrent use; each run owns its own RunState.
type Verifier struct {
	retriever EvidenceRetriever
	provider  llm.Provider
	searcher  WebSearcher
	enricher  PageEnricher
	syncer    EvidenceSyncer
	threshold float64
	logger    *slog.Logger
}

// VerifierOptions wires a Verifier. Retriever and Provider are required;
// Searcher, Enricher and Syncer are optional and their steps degrade to
// no-ops when absent.
type VerifierOptions struct {
	Retriever EvidenceRetriever
	Provider  llm.Provider
	Searcher  WebSearcher
	Enricher  PageEnricher
	Syncer    EvidenceSyncer
	Threshold float64
	Logger    *slog.Logger
}

// NewVerifier creates a verifier from its components
func NewVerifier(opts VerifierOptions) (*Verifier, error) {
	if opts.Retriever == nil {
		return nil, fmt.Errorf("verifier requires a retriever")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("verifier requires an LLM provider")
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = model.DefaultConfig().Retrieval.ConfidenceThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Verifier{
		retriever: opts.Retriever,
		provider:  opts.Provider,
		searcher:  opts.Searcher,
		enricher:  opts.Enricher,
		syncer:    opts.Syncer,
		threshold: opts.Threshold,
		logger:    opts.Logger,
	}, nil
}

// Verify runs the full workflow for one claim. Retrieval and evaluation
// failures abort the run; web search and write-back failures degrade.
func (v *Verifier) Verify(ctx context.Context, claim string) (*model.VerificationResult, error) {
	if claim == "" {
		return nil, fmt.Errorf("empty claim")
	}

	run := &model.RunState{Claim: claim}
	state := StateRetrieve

	for state != StateDone {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("verification aborted: %w", err)
		}

		var err error
		switch state {
		case StateRetrieve:
			err = v.retrieveStep(ctx, run)
		case StateEvaluateStore:
			err = v.evaluateStoreStep(ctx, run)
		case StateWebSearch:
			v.webSearchStep(ctx, run)
		case StateEvaluateWeb:
			err = v.evaluateWebStep(ctx, run)
		case StateSyncBack:
			v.syncBackStep(run)
		case StateFormatOutput:
			// Terminal assembly happens after the loop.
		}
		if err != nil {
			return nil, err
		}

		state = Transition(state, run, v.threshold)
	}

	result := &model.VerificationResult{
		Claim:          run.Claim,
		Explanation:    run.Explanation,
		EvidenceSource: run.EvidenceSource,
		SourceURLs:     run.SourceURLs,
		Verdict:        run.Verdict,
	}
	if result.SourceURLs == nil {
		result.SourceURLs = []string{}
	}

	v.logger.Info("claim verified",
		"verdict", result.Verdict,
		"evidence_source", result.EvidenceSource,
		"sources", len(result.SourceURLs))
	return result, nil
}

func (v *Verifier) retrieveStep(ctx context.Context, run *model.RunState) error {
	evidence, err := v.retriever.Retrieve(ctx, run.Claim)
	if err != nil {
		return err
	}
	run.Evidence = evidence
	v.logger.Debug("evidence retrieved", "chunks", len(evidence))
	return nil
}

func (v *Verifier) evaluateStoreStep(ctx context.Context, run *model.RunState) error {
	prompt := evaluationPrompt(run.Claim, formatEvidence(run.Evidence))
	eval, err := v.provider.Evaluate(ctx, llm.EvaluationSystemPrompt, prompt)
	if err != nil {
		return err
	}

	run.EvidenceFound = eval.EvidenceFound
	run.Confidence = eval.Confidence
	run.Verdict = eval.Verdict
	run.Explanation = eval.Explanation
	run.EvidenceSource = model.EvidenceSourceStore
	for _, c := range run.Evidence {
		run.AddSourceURL(c.SourceRef())
	}

	v.logger.Debug("store evaluation",
		"evidence_found", eval.EvidenceFound,
		"confidence", eval.Confidence)
	return nil
}

// webSearchStep fills run.WebEvidence. A failed or empty search is not a
// run failure: the evaluation step proceeds with empty web evidence.
func (v *Verifier) webSearchStep(ctx context.Context, run *model.RunState) {
	if v.searcher == nil {
		return
	}

	results, err := v.searcher.Search(ctx, run.Claim)
	if err != nil {
		v.logger.Warn("web search unavailable", "error", err)
		return
	}
	if v.enricher != nil {
		results = v.enricher.Enrich(ctx, results)
	}
	run.WebEvidence = results
	v.logger.Debug("web search", "results", len(results))
}

// evaluateWebStep re-evaluates the claim against the web evidence. When the
// search failed or found nothing, the model still sees the empty-evidence
// placeholder: the sub-threshold store verdict is never resurrected, the
// model states that nothing supports the claim.
func (v *Verifier) evaluateWebStep(ctx context.Context, run *model.RunState) error {
	prompt := evaluationPrompt(run.Claim, formatWebEvidence(run.WebEvidence))
	eval, err := v.provider.Evaluate(ctx, llm.EvaluationSystemPrompt, prompt)
	if err != nil {
		return err
	}

	run.EvidenceFound = eval.EvidenceFound
	run.Confidence = eval.Confidence
	run.Verdict = eval.Verdict
	run.Explanation = eval.Explanation
	run.EvidenceSource = model.EvidenceSourceWeb

	// Web verdicts cite the web results only, not the weak store evidence
	// that sent the run down this path.
	run.SourceURLs = nil
	for _, r := range run.WebEvidence {
		run.AddSourceURL(r.URL)
	}

	v.logger.Debug("web evaluation",
		"evidence_found", eval.EvidenceFound,
		"confidence", eval.Confidence)
	return nil
}

func (v *Verifier) syncBackStep(run *model.RunState) {
	if v.syncer == nil || len(run.WebEvidence) == 0 {
		return
	}
	v.syncer.Enqueue(run.WebEvidence, run.Claim)
}
