// Package httptransport exposes the primitive engine over HTTP as an
// alternate to the MCP stdio transport, for clients that prefer plain
// JSON-RPC-over-HTTP to a line-delimited stdio pipe.
//
// Built on gin.New + gin.Recovery + gin-contrib/cors with the usual
// graceful-shutdown shape, but with a single JSON-RPC endpoint
// dispatching through internal/engine instead of a resource-per-route
// REST surface.
package httptransport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/agrama/agrama/internal/engine"
	"github.com/agrama/agrama/internal/logging"
	"github.com/agrama/agrama/internal/ratelimit"
)

// Config configures the HTTP transport server.
type Config struct {
	Host         string
	Port         int
	CORS         bool
	AllowOrigins []string
}

// rpcRequest mirrors the MCP wire shape for tools/call, minus the
// envelope fields that only matter for the stdio transport.
type rpcRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

type rpcResponse struct {
	Result map[string]any `json:"result,omitempty"`
	Error  *rpcError      `json:"error,omitempty"`
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server serves the engine's five primitives over HTTP POST /v1/call,
// plus GET /v1/tools mirroring the MCP tools/list surface.
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	eng         *engine.Engine
	rateLimiter *ratelimit.Limiter
	log         *logging.Logger
}

// NewServer builds the HTTP transport. rateLimiter may be nil to disable
// rate limiting.
func NewServer(eng *engine.Engine, rateLimiter *ratelimit.Limiter, cfg Config) *Server {
	log := logging.GetLogger("httptransport")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.CORS {
		corsCfg := cors.Config{
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}
		if len(cfg.AllowOrigins) > 0 {
			corsCfg.AllowOrigins = cfg.AllowOrigins
		} else {
			corsCfg.AllowAllOrigins = true
		}
		router.Use(cors.New(corsCfg))
	}

	s := &Server{router: router, eng: eng, rateLimiter: rateLimiter, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/v1")
	{
		v1.GET("/health", s.handleHealth)
		v1.GET("/tools", s.handleTools)
		v1.POST("/call", s.handleCall)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.eng.Metadata()})
}

func (s *Server) handleCall(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, rpcResponse{Error: &rpcError{Code: "invalid_request", Message: err.Error()}})
		return
	}

	if s.rateLimiter != nil {
		result := s.rateLimiter.Allow(req.Tool)
		if !result.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%.0f", result.RetryAfter.Seconds()))
			c.JSON(http.StatusTooManyRequests, rpcResponse{Error: &rpcError{Code: "rate_limited", Message: "rate limit exceeded"}})
			return
		}
	}

	kind, ok := engine.ParseKind(req.Tool)
	if !ok {
		c.JSON(http.StatusBadRequest, rpcResponse{Error: &rpcError{Code: "unknown_tool", Message: req.Tool}})
		return
	}

	agentID := agentIDFromRequest(c)
	value, execMs, err := s.eng.Call(kind, agentID, engine.Params(req.Arguments))
	if err != nil {
		s.log.LogError("http_call", err, "tool", req.Tool)
		c.JSON(http.StatusUnprocessableEntity, rpcResponse{Error: &rpcError{Code: "primitive_error", Message: err.Error()}})
		return
	}

	s.log.LogResponse("v1/call", execMs, "tool", req.Tool)
	c.JSON(http.StatusOK, rpcResponse{Result: value})
}

func agentIDFromRequest(c *gin.Context) string {
	if id := c.GetHeader("X-Agent-ID"); id != "" {
		return id
	}
	return engine.DetectAgentID()
}

// Start blocks serving HTTP on host:port.
func (s *Server) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	s.log.Info("starting HTTP transport", "address", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("stopping HTTP transport")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the underlying Gin router, e.g. for httptest wiring.
func (s *Server) Router() *gin.Engine {
	return s.router
}
