package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nguyentranbao-ct/product-hub/internal/config"
	"github.com/nguyentranbao-ct/product-hub/internal/server/middleware"
	"github.com/nguyentranbao-ct/product-hub/internal/validate"
	"github.com/nguyentranbao-ct/product-hub/pkg/logger"
	log "github.com/nguyentranbao-ct/product-hub/pkg/logger/logctx"
	"go.uber.org/fx"
)

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	products ProductController,
	submissions SubmissionController,
) error {
	e, err := newEcho(conf, products, submissions)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := conf.Server.Addr()
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", addr)
				if err := e.Start(addr); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw(ctx, "HTTP server stopped", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
	return nil
}

func newEcho(conf *config.Config, products ProductController, submissions SubmissionController) (*echo.Echo, error) {
	httpLog := logger.MustNamed("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(httpLog)

	logConfig := middleware.LogRequestConfig{
		Logger: httpLog,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		QueryParams: true,
	}

	e.Use(middleware.Metrics())
	e.Use(middleware.RequestID())
	e.Use(middleware.LogRequest(logConfig))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return err
		},
	}))

	if conf.Server.CORSPattern != "" {
		pattern, err := regexp.Compile(conf.Server.CORSPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_CORS_PATTERN: %w", err)
		}
		e.Use(middleware.CORS(pattern))
	}
	if conf.Statsd.Enabled {
		profiler, err := middleware.ProfilerWithConfig(middleware.ProfilerConfig{
			Log:     httpLog,
			Address: conf.Statsd.Address,
			Service: conf.Statsd.Service,
		})
		if err != nil {
			return nil, err
		}
		e.Use(profiler)
	}
	if conf.Server.Pprof {
		middleware.PprofWrap(e)
	}

	registerRoutes(e, conf, products, submissions)
	return e, nil
}

func registerRoutes(e *echo.Echo, conf *config.Config, products ProductController, submissions SubmissionController) {
	wrap := middleware.WrapHandler
	auth := middleware.JWTAuth(conf.Auth.JWTSecret)

	e.GET("/health", products.Health)

	api := e.Group("/api/v1")
	api.GET("/products/search", wrap(products.Search))
	api.GET("/products", wrap(products.List))
	api.GET("/products/:id", wrap(products.Get))
	api.GET("/products/:id/syndications", wrap(products.Syndications))
	api.POST("/products", wrap(products.Create), auth)
	api.PUT("/products/:id", wrap(products.Update), auth)

	subs := api.Group("/submissions", auth)
	subs.POST("", wrap(submissions.Start))
	subs.GET("/:id", wrap(submissions.Get))
	subs.PUT("/:id", wrap(submissions.Resubmit))
	subs.POST("/:id/confirm", wrap(submissions.Confirm))
	subs.POST("/:id/dismiss", wrap(submissions.Dismiss))
}
