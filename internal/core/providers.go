package core

import "context"

// CompletionRequest is a single synchronous text completion call.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	// Model overrides the provider's configured deployment when non-empty.
	Model       string
	Temperature float64
	TopP        float64
}

type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
