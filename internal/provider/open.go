package provider

import (
	"context"
	"fmt"

	"github.com/zulandar/conductor/internal/models"
)

// Open starts a generation stream for the request. An unrecognized provider
// tag fails here, before any network traffic. A non-nil error from Open is
// always a *Error.
func Open(ctx context.Context, cfg Config, req Request) (Stream, error) {
	switch req.Provider {
	case models.ProviderOllama:
		return openOllama(ctx, cfg, req)
	case models.ProviderOpenAI:
		return openOpenAI(ctx, cfg, req)
	default:
		return nil, &Error{
			Kind:     KindUnsupported,
			Provider: req.Provider,
			Message:  fmt.Sprintf("provider %q is not supported", req.Provider),
		}
	}
}
