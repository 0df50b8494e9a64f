package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"quake-observer/src/dashboard"
	"quake-observer/src/logger"
	"quake-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

// DashboardServer serves the dashboard page, one websocket per browser tab and
// a small REST surface over the live sessions.
type DashboardServer struct {
	Config   *models.MConfig
	Registry *dashboard.Registry
	Logger   *logger.Logger
	engine   *gin.Engine

	httpServer *http.Server
	startedAt  time.Time

	// sessions outlive the upgrade request, so they hang off this context
	ctx    context.Context
	cancel context.CancelFunc

	// WebSocket clients
	clients    map[*Client]struct{}
	clientsMu  sync.RWMutex
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, registry *dashboard.Registry, log *logger.Logger) *DashboardServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewLogger(cfg, "DashboardServer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &DashboardServer{
		Config:     cfg,
		Registry:   registry,
		Logger:     log,
		engine:     gin.New(),
		startedAt:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.engine.SetHTMLTemplate(indexTemplate)
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	s.engine.GET("/", s.getIndex)

	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/config", s.getConfig)
	api.GET("/sessions", s.listSessions)
	api.GET("/sessions/:id", s.getSession)
	api.POST("/sessions/:id/filter", s.postFilter)
	api.POST("/sessions/:id/retry", s.postRetry)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the routes, mainly for tests. Run must be active for /ws.
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and serves HTTP until Shutdown is called.
func (s *DashboardServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}

	go s.Run(ctx)

	s.Logger.Info("Starting dashboard on http://%s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Shutdown stops accepting requests, disconnects every client and closes
// every session.
func (s *DashboardServer) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.cancel()
	<-s.done
	s.Registry.CloseAll()
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *DashboardServer) getIndex(c *gin.Context) {
	c.HTML(http.StatusOK, indexTemplateName, newPageConfig(s.Config))
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.ClientCount(),
		"sessions":    s.Registry.Count(),
		"uptime_s":    int64(time.Since(s.startedAt).Seconds()),
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, newPageConfig(s.Config))
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.Registry.List()})
}

func (s *DashboardServer) getSession(c *gin.Context) {
	st, err := s.Registry.Status(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) postFilter(c *gin.Context) {
	var patch models.MFilterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snapshot, err := s.Registry.UpdateFilter(c.Param("id"), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *DashboardServer) postRetry(c *gin.Context) {
	if err := s.Registry.Retry(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
