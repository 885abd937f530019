package driven

import (
	"context"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
)

// ChartAnalyzer sends a chart image to the third-party analysis provider
// using the caller's own API key.
type ChartAnalyzer interface {
	// AnalyzeChart returns the text of the provider's first content block.
	// apiKey is used for this single request only and must not be retained.
	// Non-2xx responses are reported as *UpstreamError; a 2xx body of the
	// wrong shape is reported as ErrMalformedUpstream.
	AnalyzeChart(ctx context.Context, apiKey string, image model.ChartImage) (string, error)
}
