package speech

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("speech endpoints are not configured")

// Disabled stands in when no speech deployment is configured. The text
// endpoints keep working, voice requests fail with a clear error.
type Disabled struct{}

func (Disabled) Transcribe(context.Context, []byte) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Synthesize(context.Context, string) ([]byte, error) {
	return nil, ErrNotConfigured
}
