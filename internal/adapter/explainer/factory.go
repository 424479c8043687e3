package explainer

import (
	"fmt"
	"log"
	"time"
)

const (
	// ModeMock selects mock collaborators regardless of provider.
	ModeMock = "MOCK"

	ProviderHTTP      = "http"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Options selects and configures the explainer implementation.
type Options struct {
	Mode       string
	Provider   string
	BaseURL    string
	Timeout    time.Duration
	APIKey     string
	Model      string
	RatePerSec float64
	Burst      int
}

// New builds the configured Explainer, wrapped in a throttle when a rate is set.
func New(opts Options) (Explainer, error) {
	var base Explainer
	switch {
	case opts.Mode == ModeMock || opts.Provider == ProviderMock:
		log.Println("INFO: using mock explainer")
		base = NewMockClient()
	case opts.Provider == ProviderAnthropic:
		c, err := NewAnthropicFromAPIKey(opts.APIKey, opts.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic explainer: %w", err)
		}
		base = c
	case opts.Provider == "" || opts.Provider == ProviderHTTP:
		base = NewClient(opts.BaseURL, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown explainer provider %q", opts.Provider)
	}
	return NewThrottled(base, opts.RatePerSec, opts.Burst), nil
}
