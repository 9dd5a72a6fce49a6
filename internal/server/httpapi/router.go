// Package httpapi exposes the REST API over gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/plantops/internal/logging"
)

type RouterConfig struct {
	SecretKey      []byte
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the gin engine with the middleware chain and all routes.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(h.logger), AccessLog(h.logger), CORS())
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))
	}

	r.GET("/healthz", func(c *gin.Context) {
		respond(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1", Authenticate(cfg.SecretKey))

	api.GET("/me", h.me)

	api.GET("/plants", h.listPlants)
	api.POST("/plants", h.createPlant)

	api.GET("/task-masters", h.listTaskMasters)
	api.POST("/task-masters", h.createTaskMaster)
	api.GET("/task-masters/:id", h.getTaskMaster)
	api.PATCH("/task-masters/:id", h.updateTaskMaster)
	api.DELETE("/task-masters/:id", h.deactivateTaskMaster)
	api.GET("/task-masters/:id/instances", h.listInstances)
	api.POST("/task-masters/:id/instances", h.createInstance)

	api.PATCH("/task-instances/:id/status", h.updateInstanceStatus)
	api.POST("/task-instances/:id/attachments", h.presignUpload)
	api.PUT("/task-instances/:id/attachments", h.confirmUpload)
	api.GET("/task-instances/:id/attachments", h.presignDownload)

	api.POST("/task-generation/run", h.runGeneration)

	api.PUT("/users/:uid/permissions", h.updatePermissions)

	return r
}

// Server runs the HTTP API until its context is cancelled.
type Server struct {
	addr    string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(addr string, handler http.Handler, logger logging.Logger) *Server {
	return &Server{addr: addr, handler: handler, logger: logger}
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
