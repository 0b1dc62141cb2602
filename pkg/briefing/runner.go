package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oakmund/crier/pkg/config"
	"github.com/oakmund/crier/pkg/source"
)

// ContextGatherer is the aggregation engine boundary.
type ContextGatherer interface {
	Gather(ctx context.Context, raws []map[string]any) ([]source.ContextResult, error)
}

// Run is one completed briefing run.
type Run struct {
	ID        string
	ConfigID  string
	Content   string
	Results   []source.ContextResult
	Succeeded int
	Failed    int
	CreatedAt time.Time
}

// Runner drives one briefing end to end: gather context for every source in
// the configuration, synthesize, and optionally record the run.
type Runner struct {
	gatherer  ContextGatherer
	generator Generator
	store     *Store
}

type RunnerOption func(*Runner)

// WithGenerator overrides the synthesis step.
func WithGenerator(generator Generator) RunnerOption {
	return func(r *Runner) {
		r.generator = generator
	}
}

// WithStore enables run history persistence.
func WithStore(store *Store) RunnerOption {
	return func(r *Runner) {
		r.store = store
	}
}

func NewRunner(gatherer ContextGatherer, opts ...RunnerOption) *Runner {
	r := &Runner{
		gatherer:  gatherer,
		generator: MarkdownGenerator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one briefing for cfg.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*Run, error) {
	results, err := r.gatherer.Gather(ctx, cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("context aggregation failed: %w", err)
	}

	succeeded, failed := 0, 0
	for _, result := range results {
		if result.Failed() {
			failed++
		} else {
			succeeded++
		}
	}

	slog.Info("Context gathered",
		"config", cfg.ID,
		"sources", len(results),
		"succeeded", succeeded,
		"failed", failed,
	)

	generated, err := r.generator.Generate(ctx, results, cfg.BriefingPrompt())
	if err != nil {
		return nil, fmt.Errorf("briefing synthesis failed: %w", err)
	}

	run := &Run{
		ID:        uuid.NewString(),
		ConfigID:  cfg.ID,
		Content:   generated.Content,
		Results:   results,
		Succeeded: succeeded,
		Failed:    failed,
		CreatedAt: time.Now().UTC(),
	}

	if r.store != nil {
		if err := r.store.SaveRun(ctx, run); err != nil {
			// History is best-effort: a recording failure must not discard
			// the briefing itself.
			slog.Error("Failed to record briefing run", "run_id", run.ID, "error", err)
		}
	}

	return run, nil
}
