// Package mcpsrv exposes the pipeline as an MCP tool over stdio so agent
// hosts can query the dataset as part of their own tool loops.
package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/talkdata/internal/core"
	"github.com/sandevgo/talkdata/internal/service/pipeline"
	"github.com/sandevgo/talkdata/pkg/log"
)

const defaultSessionID = "mcp-local"

type Server struct {
	engine *pipeline.Engine
	stdio  *server.StdioServer
	cancel context.CancelFunc
}

func NewServer(engine *pipeline.Engine) *Server {
	s := &Server{engine: engine}

	mcpServer := server.NewMCPServer(core.AppName, core.AppVersion,
		server.WithToolCapabilities(false))

	tool := mcp.NewTool("ask_data",
		mcp.WithDescription("Ask a natural language question about the ingested dataset. Returns the generated SQL, the classified outcome and a plain language summary of the rows."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer from the dataset"),
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation identifier, reuse it to ask follow-up questions"),
		),
	)
	mcpServer.AddTool(tool, s.handleAsk)

	s.stdio = server.NewStdioServer(mcpServer)
	return s
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting mcp stdio server")
	ctx, s.cancel = context.WithCancel(ctx)
	return s.stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sessionID := req.GetString("session_id", defaultSessionID)

	answer, err := s.engine.Ask(ctx, sessionID, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", err)), nil
	}

	payload, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
