package extract

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultMinUsableContent is the minimum content length for a result to pass
// the usability gate. Applied uniformly across all handlers.
const DefaultMinUsableContent = 50

// Pipeline runs an ordered list of extraction strategies until one produces
// a usable result. It never returns an error: when every strategy fails it
// synthesizes a placeholder result tagged MethodFallback.
type Pipeline struct {
	strategies []Strategy
	minUsable  int
	logger     *slog.Logger
}

// NewPipeline creates a pipeline over the given strategies, tried in order.
// minUsable <= 0 selects DefaultMinUsableContent.
func NewPipeline(minUsable int, strategies ...Strategy) *Pipeline {
	if minUsable <= 0 {
		minUsable = DefaultMinUsableContent
	}
	return &Pipeline{
		strategies: strategies,
		minUsable:  minUsable,
		logger:     slog.Default(),
	}
}

// WithLogger replaces the pipeline logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Append adds strategies after the existing ones. Used to attach the
// backend remote strategy when one is configured.
func (p *Pipeline) Append(strategies ...Strategy) {
	p.strategies = append(p.strategies, strategies...)
}

// InsertBefore places strategies ahead of the first strategy with the given
// method, so a remote step can run before the raw scrape of last resort. When
// no strategy carries that method the new ones go at the end.
func (p *Pipeline) InsertBefore(method Method, strategies ...Strategy) {
	for i, s := range p.strategies {
		if s.Method() == method {
			expanded := make([]Strategy, 0, len(p.strategies)+len(strategies))
			expanded = append(expanded, p.strategies[:i]...)
			expanded = append(expanded, strategies...)
			expanded = append(expanded, p.strategies[i:]...)
			p.strategies = expanded
			return
		}
	}
	p.strategies = append(p.strategies, strategies...)
}

// Run tries each strategy in order and returns the first usable result plus
// the record of every attempt. Individual strategy errors and panics are
// recovered and recorded; they never propagate.
func (p *Pipeline) Run(ctx context.Context, blob []byte, fileName string) (*Result, []Attempt) {
	attempts := make([]Attempt, 0, len(p.strategies))

	for _, strategy := range p.strategies {
		result, err := p.attempt(ctx, strategy, blob, fileName)

		attempt := Attempt{Method: strategy.Method()}
		switch {
		case err != nil:
			attempt.Err = err.Error()
			p.logger.Debug("extraction strategy failed",
				"file", fileName, "method", string(strategy.Method()), "error", err)
		case result == nil:
			attempt.Err = "declined"
		case !p.usable(result):
			attempt.Err = fmt.Sprintf("unusable output (%d chars)", len(result.Content))
			p.logger.Debug("extraction strategy below usability gate",
				"file", fileName, "method", string(strategy.Method()), "chars", len(result.Content))
		default:
			attempt.OK = true
			attempts = append(attempts, attempt)
			result.Method = strategy.Method()
			return result, attempts
		}
		attempts = append(attempts, attempt)
	}

	return p.placeholder(blob, fileName, attempts), attempts
}

// attempt invokes one strategy with panic recovery.
func (p *Pipeline) attempt(ctx context.Context, strategy Strategy, blob []byte, fileName string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("strategy %s panicked: %v", strategy.Method(), r)
		}
	}()
	return strategy.Extract(ctx, blob, fileName)
}

// usable applies the minimum-content-length gate. Short or empty content is
// treated as a failed attempt even when the strategy reported success.
func (p *Pipeline) usable(r *Result) bool {
	return r.Succeeded && len(r.Content) > p.minUsable
}

// placeholder synthesizes the final informative result when no strategy
// produced usable output. This is what reaches the user instead of an error.
func (p *Pipeline) placeholder(blob []byte, fileName string, attempts []Attempt) *Result {
	tried := make([]string, 0, len(attempts))
	for _, a := range attempts {
		tried = append(tried, string(a.Method))
	}

	content := fmt.Sprintf(
		"Preview is not available for %q (%d bytes). "+
			"The file could not be converted to a readable preview; "+
			"download the original file to view its contents.",
		fileName, len(blob))

	return &Result{
		Content:   content,
		PlainText: content,
		Method:    MethodFallback,
		Succeeded: false,
		Metadata: map[string]string{
			"attempted_methods": fmt.Sprintf("%v", tried),
		},
	}
}
