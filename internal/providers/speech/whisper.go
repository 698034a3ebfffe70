package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/talkdata/internal/config"
)

const speechAPIVersion = "2024-02-15-preview"

// Whisper transcribes audio through an Azure OpenAI whisper deployment.
type Whisper struct {
	client   *http.Client
	endpoint string
	apiKey   string
	model    string
}

func NewWhisper(cfg *config.SpeechConfig) *Whisper {
	return &Whisper{
		client:   &http.Client{Timeout: 60 * time.Second},
		endpoint: strings.TrimRight(cfg.WhisperEndpoint, "/"),
		apiKey:   cfg.WhisperAPIKey,
		model:    cfg.WhisperModel,
	}
}

func (w *Whisper) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := mw.WriteField("model", w.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("write format field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	reqURL := fmt.Sprintf("%s/openai/deployments/%s/audio/transcriptions?api-version=%s",
		w.endpoint, url.PathEscape(w.model), speechAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", w.apiKey)
	// Content-Type carries the multipart boundary, the writer knows it
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	return strings.TrimSpace(string(data)), nil
}
