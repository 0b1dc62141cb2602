package briefing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oakmund/crier/pkg/source"
)

// Briefing is the synthesized output of one run.
type Briefing struct {
	Content string
}

// Generator is the synthesis collaborator. It receives the aggregation
// engine's output verbatim, including entries whose Error is set, so that
// partial data still informs the briefing.
type Generator interface {
	Generate(ctx context.Context, results []source.ContextResult, prompt string) (Briefing, error)
}

// MarkdownGenerator is the built-in generator: a plain markdown rendering of
// the gathered context. It stands in wherever no LLM-backed generator is
// configured.
type MarkdownGenerator struct{}

func (MarkdownGenerator) Generate(ctx context.Context, results []source.ContextResult, prompt string) (Briefing, error) {
	var sb strings.Builder

	sb.WriteString("# Briefing\n\n")
	if prompt != "" {
		sb.WriteString(fmt.Sprintf("> %s\n\n", prompt))
	}

	for _, result := range results {
		sb.WriteString(fmt.Sprintf("## %s\n\n", result.SourceName))

		if result.Failed() {
			sb.WriteString(fmt.Sprintf("Unavailable: %s\n\n", result.Error))
			continue
		}

		data, err := json.MarshalIndent(result.Data, "", "  ")
		if err != nil {
			sb.WriteString(fmt.Sprintf("%v\n\n", result.Data))
			continue
		}
		sb.WriteString("```json\n")
		sb.Write(data)
		sb.WriteString("\n```\n\n")
	}

	if len(results) == 0 {
		sb.WriteString("No sources configured.\n")
	}

	return Briefing{Content: sb.String()}, nil
}
