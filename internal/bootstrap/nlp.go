package bootstrap

import (
	"context"

	"github.com/cognigraph/cognigraph-backend/config"
	"github.com/cognigraph/cognigraph-backend/internal/nlp"
)

// NewExtractor builds the entity extractor backed by Cloud Natural Language.
func NewExtractor(ctx context.Context, cfg *config.NLPConfig) (*nlp.Extractor, error) {
	analyzer, err := nlp.NewGoogleAnalyzer(ctx, nlp.GoogleConfig{
		APIKey:          cfg.APIKey,
		CredentialsFile: cfg.CredentialsFile,
		Endpoint:        cfg.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return nlp.NewExtractor(analyzer, cfg.Timeout), nil
}
