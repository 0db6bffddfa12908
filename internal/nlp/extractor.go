package nlp

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMinSalience is the exclusive lower bound an entity's salience must
// exceed to be reported as a topic.
const DefaultMinSalience = 0.01

var ErrAnalysisFailed = errors.New("entity analysis failed")

// Extractor turns free text into candidate topic names.
type Extractor struct {
	analyzer    Analyzer
	minSalience float64
	timeout     time.Duration
}

// NewExtractor wraps analyzer. A positive timeout bounds each analyzer call.
func NewExtractor(analyzer Analyzer, timeout time.Duration) *Extractor {
	return &Extractor{
		analyzer:    analyzer,
		minSalience: DefaultMinSalience,
		timeout:     timeout,
	}
}

// ExtractTopics returns the names of entities whose salience is above the
// threshold, in the order the analyzer reported them. Errors wrap
// ErrAnalysisFailed.
func (e *Extractor) ExtractTopics(ctx context.Context, text string) ([]string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	entities, err := e.analyzer.AnalyzeEntities(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	topics := make([]string, 0, len(entities))
	for _, ent := range entities {
		if ent.Salience > e.minSalience {
			topics = append(topics, ent.Name)
		}
	}
	return topics, nil
}
