package sqlgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ledgerchat/ledgerchat/internal/dbquery"
	"github.com/ledgerchat/ledgerchat/internal/llm"
)

const synthesizerSystemPrompt = "You are a helpful banking data assistant. " +
	"Summarize SQL query results in one or two friendly sentences that answer " +
	"the user's question. Use only the data provided. Do not mention SQL."

const digestExampleRows = 3

// Synthesizer turns an execution result into a natural language answer. It
// never fails: if the completion backend is down, a deterministic templated
// sentence stands in for the model's answer.
type Synthesizer struct {
	client    llm.Client
	maxTokens int
}

func NewSynthesizer(client llm.Client, maxTokens int) *Synthesizer {
	return &Synthesizer{client: client, maxTokens: maxTokens}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, result dbquery.Result) string {
	digest := buildDigest(result)
	prompt := fmt.Sprintf("Question:\n%s\n\nSQL query used:\n%s\n\nQuery result summary:\n%s\n\nAnswer the question using only this data.",
		strings.TrimSpace(question), strings.TrimSpace(result.Query), digest)

	answer, err := s.client.Complete(ctx, llm.Request{
		System:    synthesizerSystemPrompt,
		Prompt:    prompt,
		MaxTokens: s.maxTokens,
	})
	if err != nil || strings.TrimSpace(answer) == "" {
		return fallbackAnswer(result)
	}
	return strings.TrimSpace(answer)
}

// buildDigest compresses the result for the prompt: row count, column names,
// and at most three example rows. Full result sets never reach the model.
func buildDigest(result dbquery.Result) string {
	if !result.Success {
		return "The query failed: " + result.Error
	}
	if result.RowCount == 0 {
		return "No results found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s).\n", result.RowCount)
	if len(result.Columns) > 0 {
		fmt.Fprintf(&b, "Columns: %s\n", strings.Join(result.Columns, ", "))
	}
	shown := len(result.Data)
	if shown > digestExampleRows {
		shown = digestExampleRows
	}
	for i := 0; i < shown; i++ {
		encoded, err := json.Marshal(result.Data[i])
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "Row %d: %s\n", i+1, string(encoded))
	}
	if remaining := result.RowCount - shown; remaining > 0 {
		fmt.Fprintf(&b, "... and %d more rows\n", remaining)
	}
	return strings.TrimRight(b.String(), "\n")
}

func fallbackAnswer(result dbquery.Result) string {
	if !result.Success {
		return "The query failed: " + result.Error
	}
	if result.RowCount == 0 {
		return "No results found."
	}
	return fmt.Sprintf("Found %d results for your query.", result.RowCount)
}
