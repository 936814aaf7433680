// Package api serves stored readings and frame analysis over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/LogicPi-cn/lgp-iot-db/internal/store"
	"github.com/LogicPi-cn/lgp-iot-db/pkg/humiture"
)

// HeaderRequestID is echoed on every response.
const HeaderRequestID = "X-Request-ID"

// Store is what the handlers read from and write to.
type Store interface {
	Write(ctx context.Context, readings []humiture.Reading) error
	ReadingsByGroup(ctx context.Context, group uint8, limit int) ([]humiture.Reading, error)
	ReadingsBySerial(ctx context.Context, sn uint32, limit int) ([]humiture.Reading, error)
	ReadingsByDevice(ctx context.Context, deviceID uint64, from, to time.Time) ([]humiture.Reading, error)
	AccelByDevice(ctx context.Context, deviceID int32, limit int) ([]store.AccelReading, error)
}

// Options configures the server.
type Options struct {
	Addr string
	// Analyze is applied to frames posted to /v1/frames.
	Analyze humiture.AnalyzeOptions
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	Log      logrus.FieldLogger
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	opts   Options
	store  Store
	engine *gin.Engine
	log    *logrus.Entry
}

// New constructs a server with routes and middleware.
func New(opts Options, st Store) *Server {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())

	s := &Server{
		opts:   opts,
		store:  st,
		engine: engine,
		log:    opts.Log.WithField("component", "api"),
	}
	engine.Use(s.logMiddleware())
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.WithField("addr", s.opts.Addr).Info("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.engine.Group("/v1")
	v1.GET("/groups/:group/readings", s.handleGroupReadings)
	v1.GET("/serials/:sn/readings", s.handleSerialReadings)
	v1.GET("/devices/:id/readings", s.handleDeviceReadings)
	v1.GET("/accel/:id/samples", s.handleAccelSamples)
	v1.POST("/frames", s.handlePostFrame)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func (s *Server) logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"request_id": c.GetString(HeaderRequestID),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"took":       time.Since(start),
		}).Debug("request")
	}
}
