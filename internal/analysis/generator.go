package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"SilverReport/internal/model"
)

// ErrNoModels is returned when the generator has no model names to try.
var ErrNoModels = errors.New("no models configured")

// Provider is a hosted text generation backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (string, error)
	// ListModels returns the model identifiers usable for text generation.
	ListModels(ctx context.Context) ([]string, error)
}

// Report is one successfully generated report.
type Report struct {
	Polarity Polarity
	Text     string
	Model    string
	// Failures holds the models tried before Model succeeded.
	Failures []model.ModelFailure
}

// FallbackError reports that every model in the list failed.
type FallbackError struct {
	Polarity Polarity
	Failures []model.ModelFailure
}

func (e *FallbackError) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.Model + ": " + f.Reason
	}
	return fmt.Sprintf("all models failed for %s report: %s", e.Polarity, strings.Join(reasons, "; "))
}

// Generator writes reports by trying each model in order until one returns text.
type Generator struct {
	provider Provider
	models   []string
	timeout  time.Duration
	budgets  Budgets
}

// NewGenerator creates a Generator. timeout bounds each model attempt; zero disables it.
func NewGenerator(provider Provider, models []string, timeout time.Duration, budgets Budgets) *Generator {
	return &Generator{
		provider: provider,
		models:   append([]string(nil), models...),
		timeout:  timeout,
		budgets:  budgets,
	}
}

// Models returns the fallback list in try order.
func (g *Generator) Models() []string { return append([]string(nil), g.models...) }

// Generate renders the prompt for p and runs the model fallback chain.
func (g *Generator) Generate(ctx context.Context, p Polarity, in Inputs) (*Report, error) {
	p, err := ParsePolarity(string(p))
	if err != nil {
		return nil, err
	}
	if len(g.models) == 0 {
		return nil, ErrNoModels
	}
	prompt, err := BuildPrompt(p, in, g.budgets)
	if err != nil {
		return nil, err
	}

	var failures []model.ModelFailure
	for _, name := range g.models {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate %s report: %w", p, err)
		}
		log.Info().Str("polarity", p.String()).Str("provider", g.provider.Name()).Str("model", name).Msg("generating report")

		text, err := g.attempt(ctx, name, prompt)
		if err != nil {
			log.Warn().Err(err).Str("polarity", p.String()).Str("model", name).Msg("model attempt failed")
			failures = append(failures, model.ModelFailure{Model: name, Reason: err.Error()})
			continue
		}
		return &Report{Polarity: p, Text: text, Model: name, Failures: failures}, nil
	}
	return nil, &FallbackError{Polarity: p, Failures: failures}
}

func (g *Generator) attempt(ctx context.Context, name, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	text, err := g.provider.Generate(ctx, name, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
