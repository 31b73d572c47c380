package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/constants"
	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/locale"
)

// Outcome is the raw result of running a strategy over a document.
type Outcome struct {
	Candidates []entity.Candidate
	Strategy   string
	Warnings   []string
}

// Extractor dispatches to a strategy by classified format.
type Extractor struct {
	strategies map[constants.Format]Strategy
	fallback   Strategy
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithScorer replaces the scoring used to pick among the mixed strategies.
func WithScorer(s Scorer) Option {
	return func(e *Extractor) {
		if b, ok := e.fallback.(*BestOf); ok {
			b.score = s
		}
	}
}

// WithStrategy overrides the strategy used for a format.
func WithStrategy(f constants.Format, s Strategy) Option {
	return func(e *Extractor) { e.strategies[f] = s }
}

// NewExtractor builds the default strategies for loc.
func NewExtractor(loc *locale.Locale, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	p := NewPatterns(loc)
	mixed := NewBestOf(CountValid,
		NewLineBreakBuffering(p),
		NewContextWindow(p),
		NewWholeTextPatterns(p),
	)
	e := &Extractor{
		strategies: map[constants.Format]Strategy{
			constants.FormatTable:   NewTable(p),
			constants.FormatList:    NewList(p),
			constants.FormatMixed:   mixed,
			constants.FormatUnknown: mixed,
		},
		fallback: mixed,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the strategy for format over text. When a table or list strategy finds nothing
// valid, the mixed strategies are tried instead.
func (e *Extractor) Extract(text string, format constants.Format) Outcome {
	lines := strings.Split(text, "\n")
	s, ok := e.strategies[format]
	if !ok {
		s = e.fallback
	}
	out := e.run(s, lines)
	if _, mixed := s.(*BestOf); !mixed && CountValid(out.Candidates) == 0 {
		e.logger.Info("extract.fallback", "format", format, "strategy", out.Strategy)
		warning := fmt.Sprintf("%s strategy found no valid items; fell back to mixed extraction", out.Strategy)
		out = e.run(e.fallback, lines)
		out.Warnings = append([]string{warning}, out.Warnings...)
	}
	e.logger.Debug("extract.ok", "format", format, "strategy", out.Strategy, "candidates", len(out.Candidates))
	return out
}

func (e *Extractor) run(s Strategy, lines []string) Outcome {
	if b, ok := s.(*BestOf); ok {
		name, cs := b.Pick(lines)
		return Outcome{Candidates: cs, Strategy: StrategyMixed + "/" + name}
	}
	return Outcome{Candidates: s.Extract(lines), Strategy: s.Name()}
}
