package pipeline

import (
	"fmt"
	"strings"

	"github.com/ppiankov/veracity/internal/model"
)

// noEvidenceText is what the model sees when retrieval produced nothing.
// The evaluation still runs so the model can state that nothing addresses
// the claim.
const noEvidenceText = "no evidence retrieved"

// blockSeparator joins evidence blocks in the evaluation prompt
const blockSeparator = "\n\n---\n\n"

// formatEvidence renders store chunks as numbered, source-attributed
// blocks for the evaluation prompt.
func formatEvidence(chunks []model.EvidenceChunk) string {
	if len(chunks) == 0 {
		return noEvidenceText
	}

	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		blocks = append(blocks, fmt.Sprintf("[%d] (source: %s)\n%s", i+1, c.Label(), c.Text))
	}
	return strings.Join(blocks, blockSeparator)
}

// formatWebEvidence renders web search results in the same block layout,
// labelled by title and URL.
func formatWebEvidence(results []model.WebResult) string {
	if len(results) == 0 {
		return noEvidenceText
	}

	blocks := make([]string, 0, len(results))
	for i, r := range results {
		label := r.URL
		if r.Title != "" {
			label = r.Title + " - " + r.URL
		}
		blocks = append(blocks, fmt.Sprintf("[%d] (source: %s)\n%s", i+1, label, r.Content))
	}
	return strings.Join(blocks, blockSeparator)
}

// evaluationPrompt builds the user turn for the reasoning model
func evaluationPrompt(claim, evidence string) string {
	var b strings.Builder
	b.WriteString("Claim:\n")
	b.WriteString(claim)
	b.WriteString("\n\nEvidence:\n")
	b.WriteString(evidence)
	b.WriteString("\n\nEvaluate whether the evidence supports the claim.")
	return b.String()
}
