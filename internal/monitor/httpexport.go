package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/agrama/agrama/internal/logging"
)

// ExportConfig configures the read-only metrics HTTP endpoint.
type ExportConfig struct {
	Host         string
	Port         int
	CORS         bool
	AllowOrigins []string
}

// HTTPExporter serves a single read-only JSON snapshot endpoint. It is a
// second transport surface alongside the MCP stdio loop, not a dashboard:
// one route, no mutation, no static assets.
type HTTPExporter struct {
	router     *gin.Engine
	httpServer *http.Server
	monitor    *Monitor
	log        *logging.Logger
}

// NewHTTPExporter builds the exporter. mon.Snapshot is called fresh on
// every request; nothing is cached server-side.
func NewHTTPExporter(mon *Monitor, cfg ExportConfig) *HTTPExporter {
	log := logging.GetLogger("monitor")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.CORS {
		corsCfg := cors.Config{
			AllowMethods: []string{"GET", "OPTIONS"},
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

	e := &HTTPExporter{router: router, monitor: mon, log: log}
	router.GET("/metrics", e.handleMetrics)
	return e
}

func (e *HTTPExporter) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, e.monitor.Snapshot())
}

// Start blocks serving HTTP until the process exits or Stop is called from
// another goroutine.
func (e *HTTPExporter) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	e.httpServer = &http.Server{Addr: addr, Handler: e.router}
	e.log.Info("starting metrics export server", "address", addr)
	return e.httpServer.ListenAndServe()
}

// Stop gracefully shuts the exporter down.
func (e *HTTPExporter) Stop(ctx context.Context) error {
	if e.httpServer == nil {
		return nil
	}
	e.log.Info("stopping metrics export server")
	return e.httpServer.Shutdown(ctx)
}

// Router exposes the underlying Gin router, e.g. for httptest wiring.
func (e *HTTPExporter) Router() *gin.Engine {
	return e.router
}
