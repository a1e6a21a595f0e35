// Package httpapi exposes the dedup engine over HTTP: one POST endpoint
// accepting a v1 note bundle, plus a health probe.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"ward.fit/collate/internal/auth"
	"ward.fit/collate/internal/db"
	"ward.fit/collate/internal/engine"
	"ward.fit/collate/internal/globaltime"
	"ward.fit/collate/internal/ingest"
	bundleschema "ward.fit/collate/schema"
)

const (
	maxRequestBodyBytes = 8 * 1024 * 1024
	dedupRequestTimeout = 30 * time.Second
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// APIUser/APIPasswordHash enable HTTP basic auth when both are set.
	APIUser         string
	APIPasswordHash string
}

// Server serves the dedup API. The pool is optional: without it the
// audit ledger is skipped and /healthz reports audit as disabled.
type Server struct {
	engineCfg engine.Config
	pool      *db.Pool
	logger    zerolog.Logger
	opts      Options
}

func NewServer(engineCfg engine.Config, pool *db.Pool, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port <= 0 {
		port = 8802
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		engineCfg: engineCfg,
		pool:      pool,
		logger:    logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			APIUser:         auth.NormalizeUser(opts.APIUser),
			APIPasswordHash: strings.TrimSpace(opts.APIPasswordHash),
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("collate api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%d", maxRequestBodyBytes)))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealthz)

	api := e.Group("/v1")
	if s.basicAuthEnabled() {
		api.Use(middleware.BasicAuth(s.checkBasicAuth))
	}
	api.POST("/dedup", s.handleDedup)

	return e
}

func (s *Server) basicAuthEnabled() bool {
	return s.opts.APIUser != "" && s.opts.APIPasswordHash != ""
}

func (s *Server) checkBasicAuth(user, password string, _ echo.Context) (bool, error) {
	userOK := subtle.ConstantTimeCompare([]byte(auth.NormalizeUser(user)), []byte(s.opts.APIUser)) == 1
	passwordOK := auth.VerifyCredential(password, s.opts.APIPasswordHash)
	return userOK && passwordOK, nil
}

func (s *Server) handleHealthz(c echo.Context) error {
	data := map[string]any{
		"service": "collate",
		"time":    globaltime.UTC(),
		"audit":   "disabled",
	}
	if s.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()
		if err := s.pool.Ping(ctx); err != nil {
			data["audit"] = "unreachable"
			return fail(c, http.StatusServiceUnavailable, "database unreachable", data)
		}
		data["audit"] = "ok"
	}
	return success(c, data)
}

func (s *Server) handleDedup(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBodyBytes))
	if err != nil {
		return fail(c, http.StatusBadRequest, "read request body", nil)
	}

	bundle, err := bundleschema.ValidateNoteBundle(body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid note bundle", map[string]any{
			"reason": err.Error(),
		})
	}

	notes, err := ingest.BuildNotes(bundle)
	if err != nil {
		return fail(c, http.StatusBadRequest, "unusable note content", map[string]any{
			"reason": err.Error(),
		})
	}

	cfg := ingest.EngineConfig(s.engineCfg, bundle.Options)
	eng, err := engine.New(cfg, s.logger)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid engine options", map[string]any{
			"reason": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dedupRequestTimeout)
	defer cancel()

	startedAt := globaltime.UTC()
	result := eng.Dedup(ctx, notes)
	finishedAt := globaltime.UTC()

	if s.pool != nil {
		runID, auditErr := s.pool.RecordDedupRun(ctx, "api", startedAt, finishedAt, result)
		if auditErr != nil {
			// The audit trail is best-effort; the caller still gets the result.
			s.logger.Error().Err(auditErr).Msg("record dedup run failed")
		} else {
			s.logger.Info().Int64("run_id", runID).Msg("dedup run recorded")
		}
	}

	return success(c, result)
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			message = msg
		}
		if httpErr.Code >= http.StatusInternalServerError {
			_ = internalError(c, message)
			return
		}
		_ = fail(c, httpErr.Code, message, nil)
		return
	}

	s.logger.Error().Err(err).Msg("unhandled http error")
	_ = internalError(c, "internal server error")
}
