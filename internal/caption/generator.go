package caption

import (
	"context"
	"time"

	"github.com/db8labs/db8-agent/internal/llm"
	"github.com/db8labs/db8-agent/internal/metrics"
)

// Generator turns prompts into validated captions through a Provider. It
// holds no mutable state and is safe for concurrent use.
type Generator struct {
	provider llm.Provider
}

// NewGenerator wraps p. A nil p yields a Generator whose Generate always
// returns ErrGenerationDisabled.
func NewGenerator(p llm.Provider) *Generator {
	return &Generator{provider: p}
}

// Enabled reports whether a provider is configured.
func (g *Generator) Enabled() bool {
	return g != nil && g.provider != nil
}

// ProviderName returns the configured provider's name, or "" when disabled.
func (g *Generator) ProviderName() string {
	if !g.Enabled() {
		return ""
	}
	return g.provider.Name()
}

// Generate makes one provider call for prompt and parses the reply. Errors
// are *llm.ProviderError, *MalformedResponseError, *SchemaError or
// ErrGenerationDisabled. Nothing is retried.
func (g *Generator) Generate(ctx context.Context, prompt string) (*GeneratedCaption, error) {
	if !g.Enabled() {
		return nil, ErrGenerationDisabled
	}
	name := g.provider.Name()
	start := time.Now()
	defer func() {
		metrics.CaptionGenerationDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	text, err := g.provider.Complete(ctx, prompt)
	if err != nil {
		metrics.CaptionGenerationsTotal.WithLabelValues(name, Kind(err)).Inc()
		return nil, err
	}

	out, err := Parse(text)
	if err != nil {
		metrics.CaptionGenerationsTotal.WithLabelValues(name, Kind(err)).Inc()
		return nil, err
	}
	metrics.CaptionGenerationsTotal.WithLabelValues(name, "ok").Inc()
	return out, nil
}
