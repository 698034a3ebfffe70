// Package httpapi exposes the pipeline over HTTP for browser clients: a
// JSON ask endpoint, a voice chat endpoint and session history reads.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sandevgo/talkdata/internal/config"
	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/pkg/log"
)

// Asker is the slice of the pipeline the HTTP layer needs.
type Asker interface {
	Ask(ctx context.Context, sessionID, utterance string) (core.Answer, error)
}

type Server struct {
	cfg     *config.HTTPConfig
	srv     *http.Server
	handler *handler
}

func NewServer(
	cfg *config.HTTPConfig,
	engine Asker,
	history core.HistoryRepository,
	transcriber core.Transcriber,
	synthesizer core.Synthesizer,
	tempDir string,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := &handler{
		engine:      engine,
		history:     history,
		transcriber: transcriber,
		synthesizer: synthesizer,
		artifacts:   newArtifactStore(tempDir, artifactKeep),
	}

	api := router.Group("/api")
	api.POST("/ask", h.ask)
	api.POST("/chat", h.chat)
	api.GET("/sessions/:id/history", h.sessionHistory)
	api.GET("/audio/:name", h.audio)
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	return &Server{
		cfg:     cfg,
		handler: h,
		srv: &http.Server{
			Addr:    cfg.Addr,
			Handler: router,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.cfg.Addr).Msg("starting http api")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
