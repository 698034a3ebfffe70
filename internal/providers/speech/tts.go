package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/talkdata/internal/config"
)

// TTS synthesizes speech through an Azure OpenAI audio deployment.
type TTS struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	deployment string
	voice      string
}

func NewTTS(cfg *config.SpeechConfig) *TTS {
	return &TTS{
		client:     &http.Client{Timeout: 60 * time.Second},
		endpoint:   strings.TrimRight(cfg.TTSEndpoint, "/"),
		apiKey:     cfg.TTSAPIKey,
		deployment: cfg.TTSDeployment,
		voice:      cfg.TTSVoice,
	}
}

func (t *TTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{
		"model": t.deployment,
		"voice": t.voice,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	reqURL := fmt.Sprintf("%s/openai/deployments/%s/audio/speech?api-version=%s",
		t.endpoint, url.PathEscape(t.deployment), speechAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", t.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	return data, nil
}
