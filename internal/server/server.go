// Package server exposes the study hub over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/dori/zenith/internal/ai"
	"github.com/dori/zenith/internal/config"
	"github.com/dori/zenith/internal/device"
	"github.com/dori/zenith/internal/logger"
	"github.com/dori/zenith/internal/media"
	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/music"
	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/timer"
)

// History is the session log the timer endpoints report from
type History interface {
	RecentSessions(limit int) ([]model.SessionLog, error)
	DailyStats(days int, now time.Time) ([]model.DayStat, error)
}

// Music is a playback provider that also handles its own login
type Music interface {
	music.MusicPlaybackProvider
	Configured() bool
	Authenticated() bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) error
	Logout() error
}

// Services are the application components behind the API. History, Music
// and Device may be nil.
type Services struct {
	Store     *store.Store
	Timer     *timer.Runner
	History   History
	Assistant *ai.Assistant
	Music     Music
	Embed     *media.Embed
	Device    *device.Controller
	// SaveDurations persists timer lengths changed through the API
	SaveDurations func(timer.Durations) error
}

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	services Services

	stateMu sync.Mutex
	states  map[string]time.Time
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, services Services, appLogger *logger.Logger) (*Server, error) {
	if services.Store == nil || services.Timer == nil {
		return nil, fmt.Errorf("server needs a store and a timer")
	}
	if appLogger == nil {
		appLogger = logger.Nop()
	}

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger.WithComponent("http"),
		services: services,
		states:   make(map[string]time.Time),
	}
	e.HTTPErrorHandler = customErrorHandler(server.logger)

	server.setupMiddleware()
	server.setupRoutes()

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"request_id", values.RequestID,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	if origins := strings.TrimSpace(s.config.Security.CORSAllowedOrigins); origins != "" {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: strings.Split(origins, ","),
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		}))
	}

	if s.config.Security.RateLimitRequests > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		perSecond := float64(s.config.Security.RateLimitRequests) / window.Seconds()
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			// only the model-backed endpoints are expensive
			Skipper: func(c echo.Context) bool {
				return !strings.HasPrefix(c.Path(), "/api/ai/")
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(perSecond), Burst: s.config.Security.RateLimitRequests, ExpiresIn: window},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	s.echo.Use(middleware.BodyLimit(fmt.Sprintf("%dK", s.maxUploadBytes()/1024+64)))
}

func (s *Server) maxUploadBytes() int64 {
	if s.config.Media.MaxFileBytes > 0 {
		return s.config.Media.MaxFileBytes
	}
	return 10 << 20
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	s.echo.GET("/login", s.login)
	s.echo.GET("/callback", s.callback)

	api := s.echo.Group("/api")

	tasks := api.Group("/tasks")
	tasks.GET("", s.listTasks)
	tasks.POST("", s.createTask)
	tasks.DELETE("/completed", s.clearCompleted)
	tasks.GET("/:id", s.getTask)
	tasks.PATCH("/:id", s.updateTask)
	tasks.POST("/:id/toggle", s.toggleTask)
	tasks.DELETE("/:id", s.deleteTask)

	subjects := api.Group("/subjects")
	subjects.GET("", s.listSubjects)
	subjects.POST("", s.createSubject)
	subjects.GET("/progress", s.subjectProgress)
	subjects.PATCH("/:id", s.updateSubject)
	subjects.DELETE("/:id", s.deleteSubject)
	subjects.POST("/:id/chapters", s.createChapter)
	subjects.PATCH("/:id/chapters/:chapterId", s.renameChapter)
	subjects.POST("/:id/chapters/:chapterId/toggle", s.toggleChapter)
	subjects.DELETE("/:id/chapters/:chapterId", s.deleteChapter)

	folders := api.Group("/folders")
	folders.GET("", s.listFolders)
	folders.POST("", s.createFolder)
	folders.PATCH("/:id", s.renameFolder)
	folders.DELETE("/:id", s.deleteFolder)
	folders.POST("/:id/files", s.uploadFile)
	folders.GET("/:id/files/:fileId", s.downloadFile)
	folders.PUT("/:id/files/:fileId/tag", s.tagFile)
	folders.DELETE("/:id/files/:fileId", s.deleteFile)

	tm := api.Group("/timer")
	tm.GET("", s.timerState)
	tm.POST("/mode", s.timerMode)
	tm.POST("/toggle", s.timerToggle)
	tm.POST("/skip", s.timerSkip)
	tm.POST("/reset", s.timerReset)
	tm.PUT("/durations", s.timerDurations)
	tm.GET("/history", s.timerHistory)
	tm.GET("/stats", s.timerStats)

	api.GET("/calendar", s.calendarMonth)

	assistant := api.Group("/ai")
	assistant.POST("/chat", s.chat)
	assistant.POST("/priorities", s.priorities)
	assistant.POST("/duration", s.playlistDuration)

	api.GET("/media/embed", s.currentEmbed)
	api.PUT("/media/embed", s.loadEmbed)

	player := api.Group("/music")
	player.GET("/status", s.musicStatus)
	player.GET("/current", s.musicCurrent)
	player.POST("/play", s.musicControl((music.MusicPlaybackProvider).Play))
	player.POST("/pause", s.musicControl((music.MusicPlaybackProvider).Pause))
	player.POST("/next", s.musicControl((music.MusicPlaybackProvider).Next))
	player.POST("/previous", s.musicControl((music.MusicPlaybackProvider).Previous))
	player.POST("/logout", s.musicLogout)

	api.GET("/device", s.deviceStatus)
	api.POST("/device/toggle", s.deviceToggle)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	timerActive := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "zenith_timer_active",
			Help: "1 while the Pomodoro countdown is running",
		},
		func() float64 {
			if s.services.Timer.Snapshot().State.Active {
				return 1
			}
			return 0
		},
	)

	completedCycles := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "zenith_completed_work_cycles",
			Help: "Work sessions completed since start",
		},
		func() float64 {
			return float64(s.services.Timer.Snapshot().State.CompletedWorkCycles)
		},
	)

	pendingTasks := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "zenith_pending_tasks",
			Help: "Tasks not yet completed",
		},
		func() float64 {
			n := 0
			for _, t := range s.services.Store.Tasks() {
				if !t.Completed {
					n++
				}
			}
			return float64(n)
		},
	)

	registry.MustRegister(requestsTotal, requestDuration, timerActive, completedCycles, pendingTasks)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": s.config.App.Version,
	})
}

// Start serves until Shutdown is called
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	srv := &http.Server{
		Addr:         address,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	err := s.echo.StartServer(srv)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = map[string]interface{}{"message": he.Message}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": ve.Error()}
		default:
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			log.Errorw("Internal server error", "error", err.Error(), "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				log.Errorw("Error sending response", "error", err.Error())
			}
		}
	}
}

// bindValid binds the request body into req and validates it
func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// storeError maps a persistence failure. The in-memory change already
// happened, so the caller still gets the new value.
func (s *Server) storeError(c echo.Context, err error) {
	if err != nil {
		s.logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
			Errorw("Persisting change failed", "path", c.Path(), "error", err.Error())
		c.Response().Header().Set("X-Zenith-Persist-Error", "1")
	}
}

func notFound(what string) error {
	return echo.NewHTTPError(http.StatusNotFound, what+" not found")
}
