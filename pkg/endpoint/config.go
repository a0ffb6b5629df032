package endpoint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/screens/pkg/config"
	"github.com/papercomputeco/screens/pkg/logger"
)

const providerGemini = "gemini"

// FromConfig builds the ordered endpoint chain described by eps.
func FromConfig(ctx context.Context, eps []config.EndpointConfig, log *slog.Logger) ([]Endpoint, error) {
	if log == nil {
		log = logger.Nop()
	}

	chain := make([]Endpoint, 0, len(eps))
	for i, ep := range eps {
		var timeout time.Duration
		if ep.Timeout != "" {
			d, err := time.ParseDuration(ep.Timeout)
			if err != nil {
				return nil, fmt.Errorf("endpoints[%d]: invalid timeout: %w", i, err)
			}
			timeout = d
		}

		var (
			e   Endpoint
			err error
		)
		switch ep.Provider {
		case providerGemini:
			e, err = NewGemini(ctx, GeminiConfig{
				Name:              ep.Name,
				APIKey:            ep.Key(),
				Model:             ep.Model,
				BaseURL:           ep.BaseURL,
				RequestsPerMinute: ep.RequestsPerMinute,
				Logger:            log,
			})
		default:
			e, err = NewHTTP(HTTPConfig{
				Name:              ep.Name,
				Provider:          ep.Provider,
				BaseURL:           ep.BaseURL,
				APIKey:            ep.Key(),
				Model:             ep.Model,
				RequestsPerMinute: ep.RequestsPerMinute,
				Timeout:           timeout,
				Logger:            log,
			})
		}
		if err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}

		chain = append(chain, e)
	}

	return chain, nil
}
