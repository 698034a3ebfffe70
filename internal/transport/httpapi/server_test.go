package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/core"
)

type fakeAsker struct {
	answer    core.Answer
	err       error
	sessions  []string
	questions []string
}

func (f *fakeAsker) Ask(_ context.Context, sessionID, question string) (core.Answer, error) {
	f.sessions = append(f.sessions, sessionID)
	f.questions = append(f.questions, question)
	return f.answer, f.err
}

type fakeHistory struct {
	turns []core.Turn
}

func (f *fakeHistory) AppendTurn(context.Context, string, core.Turn) error { return nil }
func (f *fakeHistory) GetTurns(_ context.Context, _ string, limit int) ([]core.Turn, error) {
	return f.turns, nil
}

type fakeTranscriber struct{ text string }

func (f fakeTranscriber) Transcribe(context.Context, []byte) (string, error) { return f.text, nil }

type fakeSynthesizer struct{ audio []byte }

func (f fakeSynthesizer) Synthesize(context.Context, string) ([]byte, error) { return f.audio, nil }

func newTestServer(t *testing.T, asker *fakeAsker, history core.HistoryRepository) *Server {
	t.Helper()
	return NewServer(
		&config.HTTPConfig{Addr: ":0", AllowedOrigins: []string{"http://localhost:3000"}},
		asker,
		history,
		fakeTranscriber{text: "how many apps use MySQL"},
		fakeSynthesizer{audio: []byte("RIFFfake")},
		t.TempDir(),
	)
}

func TestAskEndpoint(t *testing.T) {
	asker := &fakeAsker{answer: core.Answer{
		Outcome: core.Outcome{Status: core.StatusSuccess, Query: "SELECT 1;"},
		Summary: "One row.",
	}}
	server := newTestServer(t, asker, &fakeHistory{})

	body := `{"session_id": "s1", "question": "how many rows"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "s1" {
		t.Errorf("SessionID = %q", resp.SessionID)
	}
	if resp.Summary != "One row." {
		t.Errorf("Summary = %q", resp.Summary)
	}
	if resp.Outcome.Status != core.StatusSuccess {
		t.Errorf("Status = %q", resp.Outcome.Status)
	}
	if len(asker.questions) != 1 || asker.questions[0] != "how many rows" {
		t.Errorf("asked %v", asker.questions)
	}
}

func TestAskEndpointGeneratesSession(t *testing.T) {
	asker := &fakeAsker{answer: core.Answer{Summary: "ok"}}
	server := newTestServer(t, asker, &fakeHistory{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question": "q"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp askResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" {
		t.Error("expected a generated session id")
	}
}

func TestAskEndpointRequiresQuestion(t *testing.T) {
	server := newTestServer(t, &fakeAsker{}, &fakeHistory{})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	asker := &fakeAsker{answer: core.Answer{
		Outcome: core.Outcome{Status: core.StatusSuccess, Query: "SELECT 1;"},
		Summary: "Two apps use MySQL.",
	}}
	server := newTestServer(t, asker, &fakeHistory{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "question.wav")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("RIFFaudio"))
	mw.WriteField("session_id", "voice-1")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Question != "how many apps use MySQL" {
		t.Errorf("Question = %q, want the transcription", resp.Question)
	}
	if !strings.HasPrefix(resp.AudioURL, "/api/audio/") {
		t.Fatalf("AudioURL = %q", resp.AudioURL)
	}
	if len(asker.questions) != 1 || asker.questions[0] != "how many apps use MySQL" {
		t.Errorf("pipeline got %v, want the transcription", asker.questions)
	}

	// The synthesized reply is retrievable.
	req = httptest.NewRequest(http.MethodGet, resp.AudioURL, nil)
	w = httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("audio fetch status = %d", w.Code)
	}
	if w.Body.String() != "RIFFfake" {
		t.Errorf("audio body = %q", w.Body.String())
	}
}

func TestSessionHistoryEndpoint(t *testing.T) {
	history := &fakeHistory{turns: []core.Turn{
		{Request: core.TurnRecord{Text: "q1"}, Response: core.TurnRecord{Text: "SELECT 1;"}},
	}}
	server := newTestServer(t, &fakeAsker{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1/history", nil)
	w := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		SessionID string      `json:"session_id"`
		Turns     []core.Turn `json:"turns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "s1" || len(resp.Turns) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAudioEndpointRejectsTraversal(t *testing.T) {
	server := newTestServer(t, &fakeAsker{}, &fakeHistory{})

	req := httptest.NewRequest(http.MethodGet, "/api/audio/..%2Fsecrets.wav", nil)
	w := httptest.NewRecorder()
	server.srv.Handler.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Error("path traversal should not be served")
	}
}

func TestArtifactStorePrunes(t *testing.T) {
	dir := t.TempDir()
	store := newArtifactStore(dir, 3)

	ctx := t.Context()
	for i := 0; i < 6; i++ {
		name := string(rune('a'+i)) + ".wav"
		if err := store.save(ctx, name, []byte("x")); err != nil {
			t.Fatal(err)
		}
		// Separate mtimes so pruning order is deterministic
		ts := time.Unix(int64(1700000000+i), 0)
		if err := os.Chtimes(filepath.Join(dir, name), ts, ts); err != nil {
			t.Fatal(err)
		}
	}
	// One more save triggers the final prune
	if err := store.save(ctx, "z.wav", []byte("x")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("kept %d artifacts, want 3", len(entries))
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	if !names["z.wav"] {
		t.Errorf("newest artifact missing, kept %v", names)
	}
}
