package archive

import (
	"context"
	"errors"

	"glowficdl/internal/glowfic"
	"glowficdl/internal/services"
)

// classify tags err with the services marker matching its cause so the CLI
// can pick an exit code.
func classify(stage, operation string, err error) error {
	if err == nil {
		return nil
	}
	var remote *glowfic.RemoteError
	switch {
	case errors.As(err, &remote):
		return services.Wrap(services.ErrRemote, stage, operation, "", err)
	case errors.Is(err, glowfic.ErrUnexpectedStructure):
		return services.Wrap(services.ErrStructure, stage, operation, "", err)
	case errors.Is(err, glowfic.ErrUnrecognizedLocation):
		return services.Wrap(services.ErrValidation, stage, operation, "", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTransient, stage, operation, "interrupted", err)
	case errors.Is(err, glowfic.ErrUnreachable):
		return services.Wrap(services.ErrRemote, stage, operation, "origin unreachable", err)
	default:
		return services.Wrap(services.ErrTransient, stage, operation, "", err)
	}
}
