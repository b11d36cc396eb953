// Package httpapi exposes the create_mcq_video tool as a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/mcqvideo/internal"
	"codeberg.org/snonux/mcqvideo/internal/logger"
	"codeberg.org/snonux/mcqvideo/internal/processor"
	"codeberg.org/snonux/mcqvideo/internal/render"
)

const maxBodyBytes = 1 << 20

// Server serves the tool over HTTP
type Server struct {
	engine *gin.Engine
	addr   string
	logger logger.Logger
}

// NewServer builds the gin engine and registers the routes
func NewServer(tool processor.Tool, defaults render.Config, addr string, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(log))
	engine.Use(MaxBodySize(maxBodyBytes))

	api := &API{tool: tool, params: processor.Params(defaults)}
	registerRoutes(engine, api)

	return &Server{engine: engine, addr: addr, logger: log}
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done and then shuts down gracefully. Running
// invocations get their request context cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP API listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

// API holds the route handlers
type API struct {
	tool   processor.Tool
	params []processor.Param
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)
		apiGroup.GET("/tools", api.handleListTools)
		apiGroup.POST("/tools/"+processor.ToolName, api.handleCreate)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": internal.Version})
}

func (a *API) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tools": []gin.H{{
			"name":        processor.ToolName,
			"description": processor.ToolDescription,
			"parameters":  a.params,
		}},
	})
}

// handleCreate answers 200 for every pipeline outcome; only undecodable
// bodies are rejected with 400
func (a *API) handleCreate(c *gin.Context) {
	var req processor.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, processor.Response{
			Result:  "Error: invalid request: " + err.Error(),
			IsError: true,
		})
		return
	}

	c.JSON(http.StatusOK, a.tool.Invoke(c.Request.Context(), req))
}
