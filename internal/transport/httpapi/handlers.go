package httpapi

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/pkg/conv"
	"github.com/sandevgo/talkdata/pkg/log"
)

// maxAudioUpload caps voice uploads at 25 MB, matching the transcription
// API's own limit.
const maxAudioUpload = 25 << 20

type handler struct {
	engine      Asker
	history     core.HistoryRepository
	transcriber core.Transcriber
	synthesizer core.Synthesizer
	artifacts   *artifactStore
}

type askRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question" binding:"required"`
}

type askResponse struct {
	SessionID string       `json:"session_id"`
	Outcome   core.Outcome `json:"outcome"`
	Summary   string       `json:"summary"`
	AudioURL  string       `json:"audio_url,omitempty"`
	Question  string       `json:"question,omitempty"`
}

func (h *handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	answer, err := h.engine.Ask(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		log.FromCtx(c.Request.Context()).Error().Err(err).Msg("ask failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to answer the question"})
		return
	}

	c.JSON(http.StatusOK, askResponse{
		SessionID: req.SessionID,
		Outcome:   answer.Outcome,
		Summary:   answer.Summary,
	})
}

// chat is the voice round trip: audio in, transcription through the
// pipeline, spoken summary back out as a retrievable wav artifact.
func (h *handler) chat(c *gin.Context) {
	ctx := c.Request.Context()
	logger := log.FromCtx(ctx)

	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	if file.Size > maxAudioUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read audio"})
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read audio"})
		return
	}

	question, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		logger.Error().Err(err).Msg("transcription failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to transcribe audio"})
		return
	}

	answer, err := h.engine.Ask(ctx, sessionID, question)
	if err != nil {
		logger.Error().Err(err).Msg("ask failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to answer the question"})
		return
	}

	resp := askResponse{
		SessionID: sessionID,
		Outcome:   answer.Outcome,
		Summary:   answer.Summary,
		Question:  question,
	}

	// Summaries may carry light markdown, the voice should not read it out.
	speakable := conv.MarkdownToSpeakable(answer.Summary)
	speech, err := h.synthesizer.Synthesize(ctx, speakable)
	if err != nil {
		// A silent reply is still a reply, keep the text response
		logger.Error().Err(err).Msg("speech synthesis failed")
	} else {
		name := uuid.NewString() + ".wav"
		if err := h.artifacts.save(ctx, name, speech); err != nil {
			logger.Error().Err(err).Msg("failed to store audio artifact")
		} else {
			resp.AudioURL = "/api/audio/" + name
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) audio(c *gin.Context) {
	name := c.Param("name")
	// Artifact names are server-generated UUIDs, anything else is rejected
	if filepath.Base(name) != name || filepath.Ext(name) != ".wav" {
		c.Status(http.StatusNotFound)
		return
	}

	path, ok := h.artifacts.path(name)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(path)
}

func (h *handler) sessionHistory(c *gin.Context) {
	sessionID := c.Param("id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	turns, err := h.history.GetTurns(c.Request.Context(), sessionID, limit)
	if err != nil {
		log.FromCtx(c.Request.Context()).Error().Err(err).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	if turns == nil {
		turns = []core.Turn{}
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "turns": turns})
}
