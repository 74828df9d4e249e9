package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xhad/reviews/pkg/metrics"
	"github.com/xhad/reviews/pkg/rag"
	"golang.org/x/time/rate"
)

//go:embed templates/index.html
var indexHTML string

// Answerer resolves a user question for a session.
type Answerer interface {
	Answer(ctx context.Context, sessionID, question string) (string, error)
}

type Config struct {
	Port            int
	SessionSecret   string
	MaxQuestionLen  int
	RateLimitPerSec float64
	RateLimitBurst  int
}

// Server is the HTTP front end: request validation, status mapping,
// metrics and session identity. Everything else is the Answerer's job.
type Server struct {
	config Config
	orch   Answerer
	echo   *echo.Echo
	logger *log.Logger
}

type chatResponse struct {
	Answer string `json:"answer"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func New(config Config, orch Answerer) *Server {
	if config.MaxQuestionLen == 0 {
		config.MaxQuestionLen = 1000
	}
	if config.RateLimitPerSec == 0 {
		config.RateLimitPerSec = 5
	}
	if config.RateLimitBurst == 0 {
		config.RateLimitBurst = 10
	}

	s := &Server{
		config: config,
		orch:   orch,
		logger: log.New(log.Writer(), "[SERVER] ", log.LstdFlags),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.metricsMiddleware)
	e.Use(s.sessionMiddleware)
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/", s.handleIndex)
	e.POST("/chat", s.handleChat, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(config.RateLimitPerSec),
			Burst:     config.RateLimitBurst,
			ExpiresIn: 3 * time.Minute,
		}),
	}))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo = e
	return s
}

// Start serves until the listener fails or the process exits.
func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%d", s.config.Port))
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}

func (s *Server) handleChat(c echo.Context) error {
	req := c.Request()

	if err := req.ParseForm(); err != nil {
		metrics.ChatErrorCount.WithLabelValues(metrics.ErrorKeyError).Inc()
		s.logger.Printf("form parse error: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error:  "Error processing request: missing data",
			Status: "error",
		})
	}

	if !req.PostForm.Has("msg") {
		metrics.ChatErrorCount.WithLabelValues(metrics.ErrorMissingInput).Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:  "Missing required field: msg",
			Status: "error",
		})
	}

	msg := strings.TrimSpace(req.PostForm.Get("msg"))
	sessionID := s.sessionID(c)

	answer, err := s.orch.Answer(req.Context(), sessionID, msg)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, chatResponse{Answer: answer, Status: "success"})

	case errors.Is(err, rag.ErrEmptyInput):
		metrics.ChatErrorCount.WithLabelValues(metrics.ErrorEmptyInput).Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:  "Input cannot be empty",
			Status: "error",
		})

	case errors.Is(err, rag.ErrInputTooLong):
		metrics.ChatErrorCount.WithLabelValues(metrics.ErrorInputTooLong).Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:  fmt.Sprintf("Input too long. Maximum %d characters allowed.", s.config.MaxQuestionLen),
			Status: "error",
		})

	default:
		metrics.ChatErrorCount.WithLabelValues(metrics.ErrorUnknown).Inc()
		s.logger.Printf("chat failed for session %s: %v", sessionID, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error:  "An internal error occurred. Please try again later.",
			Status: "error",
		})
	}
}

func (s *Server) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			status = statusForError(err)
		}

		method := c.Request().Method
		endpoint := c.Request().URL.Path
		metrics.RequestCount.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
		metrics.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())

		return err
	}
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := statusForError(err)

	if c.Response().Committed {
		return
	}

	switch code {
	case http.StatusNotFound:
		_ = c.JSON(http.StatusNotFound, errorResponse{Error: "Endpoint not found", Status: "error"})
	case http.StatusTooManyRequests:
		_ = c.JSON(code, errorResponse{Error: "Too many requests. Please slow down.", Status: "error"})
	default:
		s.logger.Printf("%d %s %s: %v", code, c.Request().Method, c.Request().URL.Path, err)
		_ = c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error", Status: "error"})
	}
}

// statusForError maps a handler error to the status code the client sees.
// Method mismatches on known paths report 404 like unmatched paths do.
func statusForError(err error) int {
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code == http.StatusMethodNotAllowed {
		code = http.StatusNotFound
	}
	return code
}
