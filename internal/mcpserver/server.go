// Package mcpserver exposes the create_mcq_video tool over the Model
// Context Protocol.
package mcpserver

import (
	"context"
	"io"
	stdlog "log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"codeberg.org/snonux/mcqvideo/internal"
	"codeberg.org/snonux/mcqvideo/internal/logger"
	"codeberg.org/snonux/mcqvideo/internal/processor"
	"codeberg.org/snonux/mcqvideo/internal/render"
)

// ServerName is announced to MCP clients
const ServerName = "mcq-video-generator"

// Server wraps an MCP server with the single tool
type Server struct {
	tool   processor.Tool
	mcp    *server.MCPServer
	logger logger.Logger
}

// New creates the MCP server. defaults supply the advertised argument
// defaults and must match the processor configuration.
func New(tool processor.Tool, defaults render.Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		tool:   tool,
		mcp:    server.NewMCPServer(ServerName, internal.Version, server.WithToolCapabilities(false)),
		logger: log,
	}
	s.mcp.AddTool(ToolDefinition(defaults), s.handleCreate)
	return s
}

// MCP returns the underlying server
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves JSON-RPC on in and out until ctx is done or in closes
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(os.Stderr, "[MCP] ", stdlog.LstdFlags))

	s.logger.Info(ctx, "Serving %s over stdio", processor.ToolName)
	return stdio.Listen(ctx, in, out)
}

// ToolDefinition describes create_mcq_video with defaults from cfg
func ToolDefinition(cfg render.Config) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(processor.ToolDescription)}

	for _, p := range processor.Params(cfg) {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		if p.Default != nil {
			props = append(props, defaultValue(p.Default))
		}

		switch p.Type {
		case "number":
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case "array":
			props = append(props, mcp.Items(map[string]interface{}{
				"type":    "integer",
				"minimum": 0,
				"maximum": 255,
			}))
			opts = append(opts, mcp.WithArray(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}

	return mcp.NewTool(processor.ToolName, opts...)
}

func defaultValue(v interface{}) mcp.PropertyOption {
	return func(schema map[string]interface{}) {
		schema["default"] = v
	}
}

// handleCreate adapts a tool call to the processor. Pipeline failures are
// tool results, never protocol errors.
func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := processor.RequestFromArguments(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError("Error: invalid request: " + err.Error()), nil
	}

	resp := s.tool.Invoke(ctx, req)
	if resp.IsError {
		return mcp.NewToolResultError(resp.Result), nil
	}
	return mcp.NewToolResultText(resp.Result), nil
}
