// Package server exposes batch runs, directory listings and run history as
// a small JSON API for local front ends.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/backmassage/magickbatch/internal/config"
	"github.com/backmassage/magickbatch/internal/history"
	"github.com/backmassage/magickbatch/internal/pipeline"
)

// Server holds the collaborators shared by every request. Runs are
// serialised through Runs, so the API and any other caller never write the
// same output directory at once.
type Server struct {
	Defaults config.Config
	Runs     *pipeline.Exclusive
	Backend  pipeline.Backend
	History  *history.Store          // nil disables /api/runs listing
	Dims     pipeline.DimensionsFunc // optional, for /api/files
	Sink     pipeline.Sink           // optional console mirror
}

// Router builds the gin engine with CORS and all routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	origins := s.Defaults.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", s.health)
	api := router.Group("/api")
	api.GET("/files", s.listFiles)
	api.POST("/runs", s.startRun)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/current", s.currentRun)
	api.GET("/runs/:id", s.getRun)
	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
