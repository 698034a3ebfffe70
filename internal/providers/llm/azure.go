package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sandevgo/talkdata/internal/core"
)

// Azure talks to an Azure OpenAI deployment. Unlike the OpenAI-compatible
// endpoints, Azure routes by deployment name in the path and authenticates
// with an api-key header.
type Azure struct {
	baseProvider
	apiVersion string
}

func NewAzure(endpoint, apiKey, deployment, apiVersion string) *Azure {
	return &Azure{
		baseProvider: newBaseProvider(strings.TrimRight(endpoint, "/"), apiKey, deployment),
		apiVersion:   apiVersion,
	}
}

func (a *Azure) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	deployment := a.model
	if req.Model != "" {
		deployment = req.Model
	}

	payload := map[string]any{
		"messages": []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		"temperature": req.Temperature,
		"top_p":       req.TopP,
	}

	path := fmt.Sprintf("/openai/deployments/%s/chat/completions?api-version=%s",
		url.PathEscape(deployment), url.QueryEscape(a.apiVersion))

	resp, err := a.doRequest(ctx, http.MethodPost, path, payload, map[string]string{
		"api-key": a.apiKey,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return parseChatResponse(resp)
}
