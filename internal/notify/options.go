package notify

import "net/http"

// HTTPOption configures an HTTP-based sink.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	name   string
	client *http.Client
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.client = c
	}
}

// WithName overrides the sink name used for routing and metrics.
func WithName(name string) HTTPOption {
	return func(cfg *httpConfig) {
		if name != "" {
			cfg.name = name
		}
	}
}

func applyHTTPOptions(defaultName string, opts []HTTPOption) httpConfig {
	cfg := httpConfig{name: defaultName, client: http.DefaultClient}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
