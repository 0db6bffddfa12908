package nlp

import "context"

// Entity is one named entity found in a text, with the analyzer's salience
// score in [0, 1].
type Entity struct {
	Name     string  `json:"name"`
	Salience float64 `json:"salience"`
}

// Analyzer extracts entities from plain text.
type Analyzer interface {
	AnalyzeEntities(ctx context.Context, text string) ([]Entity, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, text string) ([]Entity, error)

func (f AnalyzerFunc) AnalyzeEntities(ctx context.Context, text string) ([]Entity, error) {
	return f(ctx, text)
}
