package nlp

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	language "google.golang.org/api/language/v1"
	"google.golang.org/api/option"
)

const (
	documentTypePlainText = "PLAIN_TEXT"
	encodingUTF8          = "UTF8"
)

// GoogleConfig selects credentials for the Cloud Natural Language API.
// APIKey wins over CredentialsFile; with neither, application default
// credentials are used.
type GoogleConfig struct {
	APIKey          string
	CredentialsFile string
	Endpoint        string
	HTTPClient      *http.Client
}

// GoogleAnalyzer calls documents:analyzeEntities of Cloud Natural Language v1.
type GoogleAnalyzer struct {
	svc *language.Service
}

func NewGoogleAnalyzer(ctx context.Context, cfg GoogleConfig) (*GoogleAnalyzer, error) {
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := language.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("language.NewService: %w", err)
	}
	return &GoogleAnalyzer{svc: svc}, nil
}

func (g *GoogleAnalyzer) AnalyzeEntities(ctx context.Context, text string) ([]Entity, error) {
	req := &language.AnalyzeEntitiesRequest{
		Document: &language.Document{
			Content: text,
			Type:    documentTypePlainText,
		},
		EncodingType: encodingUTF8,
	}

	resp, err := g.svc.Documents.AnalyzeEntities(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("analyzeEntities: %w", err)
	}

	out := make([]Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		if e == nil {
			continue
		}
		out = append(out, Entity{Name: e.Name, Salience: e.Salience})
	}
	return out, nil
}

func clientOptions(ctx context.Context, cfg GoogleConfig) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, language.CloudLanguageScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	default:
		creds, err := google.FindDefaultCredentials(ctx, language.CloudLanguageScope)
		if err != nil {
			return nil, fmt.Errorf("find default credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	return opts, nil
}
