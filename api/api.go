// Package api serves the daily selection to the presentation layer over
// HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/dailyarticle/article"
	"github.com/pevans/dailyarticle/cache"
	"github.com/pevans/dailyarticle/config"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/scraper"
	"github.com/pevans/dailyarticle/selection"
	"github.com/pevans/dailyarticle/topics"
	"go.uber.org/zap"
)

// Selector is the selection surface used by the handlers.
// *selection.Selector satisfies it.
type Selector interface {
	Today(ctx context.Context) (*article.Article, error)
	Reload(ctx context.Context) (*article.Article, error)
	ByTopic(ctx context.Context, topic article.Topic) (*article.Article, error)
	Current() *selection.DailySelection
	State() selection.State
}

// RunHistory reports the latest scraper runs. *runlog.Store satisfies it.
type RunHistory interface {
	Latest() ([]runlog.Run, error)
}

// CacheStats summarizes the article cache. *cache.Cache satisfies it.
type CacheStats interface {
	Stats() (*cache.Stats, error)
}

// Options are the collaborators of an APIServer. Selector and Topics are
// required; the rest enable optional endpoints.
type Options struct {
	Selector Selector
	Topics   *topics.Config
	Sources  []scraper.SourceConfig
	Runs     RunHistory
	Cache    CacheStats
	Settings *config.Config
	Logger   *zap.Logger
}

// APIServer represents the HTTP API server.
type APIServer struct {
	selector Selector
	topics   *topics.Config
	sources  []scraper.SourceConfig
	runs     RunHistory
	cache    CacheStats
	settings *config.Config
	logger   *zap.Logger
}

// NewAPIServer creates a new API server.
func NewAPIServer(opts Options) *APIServer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &APIServer{
		selector: opts.Selector,
		topics:   opts.Topics,
		sources:  opts.Sources,
		runs:     opts.Runs,
		cache:    opts.Cache,
		settings: opts.Settings,
		logger:   opts.Logger.With(zap.String("component", "api")),
	}
}

// SetupRouter configures the Gin router with all API routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/selection", s.HandleGetSelection)
	api.POST("/selection/reload", s.HandleReloadSelection)
	api.GET("/topics", s.HandleListTopics)
	api.GET("/topics/:topic/article", s.HandleTopicArticle)
	api.GET("/sources", s.HandleListSources)
	api.GET("/cache", s.HandleCacheStats)
	api.GET("/meta/config", s.HandleGetConfig)

	return router
}

// requestLogger logs one line per request.
func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			s.logger.Error("HTTP request with errors", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
			return
		}
		s.logger.Info("HTTP request", fields...)
	}
}

// Serve runs the API on addr until ctx is done, then shuts down gracefully.
func (s *APIServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
