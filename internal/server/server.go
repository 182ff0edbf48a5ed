// Package server exposes the document pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/extract"
	"github.com/valpere/lexitran/internal/pipeline"
)

// maxUpload bounds the size of an uploaded document.
const maxUpload = 32 << 20

// DocumentTranslator is the part of the pipeline the server needs.
type DocumentTranslator interface {
	Run(ctx context.Context, doc internal.SourceDocument, onProgress internal.ProgressFunc) (*pipeline.Report, error)
	TranslateText(ctx context.Context, text string, onProgress internal.ProgressFunc) *pipeline.Report
}

type Config struct {
	Addr string
}

type Server struct {
	echo       *echo.Echo
	translator DocumentTranslator
	logger     *zap.Logger
	config     Config
}

func New(translator DocumentTranslator, logger *zap.Logger, cfg Config) (*Server, error) {
	if translator == nil {
		return nil, fmt.Errorf("translator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("32M"))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{echo: e, translator: translator, logger: logger, config: cfg}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	v1 := s.echo.Group("/v1")
	v1.POST("/translate", s.handleTranslate)
}

type HealthResponse struct {
	Status string `json:"status"`
}

// TextRequest is the JSON body accepted by POST /v1/translate as an
// alternative to a multipart upload.
type TextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleTranslate accepts either a multipart upload in field "file" or a
// JSON body {"text": "..."} and returns the pipeline report.
func (s *Server) handleTranslate(c echo.Context) error {
	ctx := c.Request().Context()

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var req TextRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(req.Text) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
		}
		return c.JSON(http.StatusOK, s.translator.TranslateText(ctx, req.Text, nil))
	}

	doc, err := readUpload(c)
	if err != nil {
		return err
	}

	report, err := s.translator.Run(ctx, doc, nil)
	if err != nil {
		if errors.Is(err, extract.ErrDocumentFormat) {
			s.logger.Warn("unreadable document", zap.String("name", doc.Name), zap.Error(err))
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		s.logger.Error("translation failed", zap.String("name", doc.Name), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "translation failed")
	}
	return c.JSON(http.StatusOK, report)
}

func readUpload(c echo.Context) (internal.SourceDocument, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return internal.SourceDocument{}, echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return internal.SourceDocument{}, echo.NewHTTPError(http.StatusBadRequest, "cannot open upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUpload))
	if err != nil {
		return internal.SourceDocument{}, echo.NewHTTPError(http.StatusBadRequest, "cannot read upload")
	}
	return internal.SourceDocument{Name: fh.Filename, Data: data}, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.config.Addr))
	err := s.echo.Start(s.config.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
