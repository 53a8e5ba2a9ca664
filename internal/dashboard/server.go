package dashboard

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/waxaddict/wti-wave-dashboard/internal/metrics"
	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/scanner"
)

// WaveScanner runs one wave scan for a timeframe.
type WaveScanner interface {
	Scan(ctx context.Context, interval string) (*scanner.Report, error)
}

// Server serves the wave dashboard and its JSON API.
type Server struct {
	Scanner    WaveScanner
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Timeframes []string

	engine *gin.Engine
	http   *http.Server
}

// NewServer builds the gin router. allowOrigins configures CORS for the API.
func NewServer(sc WaveScanner, rec recorder.Recorder, m *metrics.Metrics, timeframes, allowOrigins []string) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{Scanner: sc, Recorder: rec, Metrics: m, Timeframes: timeframes}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	_ = r.SetTrustedProxies(nil)
	r.Use(cors.New(corsConfig(allowOrigins)))

	r.GET("/", s.index)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	api := r.Group("/api")
	api.GET("/wave", s.getWave)
	api.GET("/history", s.getHistory)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	s.engine = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on addr until Shutdown is called.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("dashboard listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) defaultInterval() string {
	for _, tf := range s.Timeframes {
		if tf == "4h" {
			return tf
		}
	}
	if len(s.Timeframes) > 0 {
		return s.Timeframes[0]
	}
	return "4h"
}

// interval reads and validates the interval query parameter.
func (s *Server) interval(c *gin.Context) (string, bool) {
	tf := strings.ToLower(c.DefaultQuery("interval", s.defaultInterval()))
	for _, allowed := range s.Timeframes {
		if tf == allowed {
			return tf, true
		}
	}
	return tf, false
}

func (s *Server) getWave(c *gin.Context) {
	tf, ok := s.interval(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported interval", "interval": tf, "supported": s.Timeframes})
		return
	}
	rep, err := s.Scanner.Scan(c.Request.Context(), tf)
	if err != nil {
		log.Error().Err(err).Str("interval", tf).Msg("dashboard scan")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, NewWaveView(rep))
}

func (s *Server) getHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	scans, err := s.Recorder.RecentScans(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	out := make([]HistoryView, 0, len(scans))
	for _, sc := range scans {
		out = append(out, newHistoryView(sc))
	}
	c.JSON(http.StatusOK, gin.H{"scans": out})
}

func (s *Server) index(c *gin.Context) {
	tf, ok := s.interval(c)
	page := indexPage{Timeframes: s.Timeframes, Interval: tf, Title: strings.ToUpper(tf)}
	status := http.StatusOK
	if !ok {
		page.Err = "unsupported interval " + tf
		status = http.StatusBadRequest
	} else if rep, err := s.Scanner.Scan(c.Request.Context(), tf); err != nil {
		page.Err = err.Error()
		status = http.StatusBadGateway
	} else {
		v := NewWaveView(rep)
		page.Wave = &v
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		log.Error().Err(err).Msg("render dashboard")
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
