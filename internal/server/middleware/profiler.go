package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/alexcesaro/statsd.v2"
)

type ProfilerConfig struct {
	Log     Logger
	Skipper Skipper
	Address string
	Service string
}

var DefaultProfilerConfig = ProfilerConfig{
	Skipper: DefaultSkipper,
	Address: ":8125",
	Service: "product-hub",
}

// ProfilerWithConfig sends one statsd timing per request, keyed
// response.<service>.<method>.<route>.<status>.
func ProfilerWithConfig(config ProfilerConfig) (echo.MiddlewareFunc, error) {
	if config.Skipper == nil {
		config.Skipper = DefaultProfilerConfig.Skipper
	}
	if config.Address == "" {
		config.Address = DefaultProfilerConfig.Address
	}
	if config.Service == "" {
		config.Service = DefaultProfilerConfig.Service
	}

	client, err := statsd.New(statsd.Address(config.Address))
	if err != nil {
		return nil, fmt.Errorf("statsd client: %w", err)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			if config.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			res := c.Response()
			t := client.NewTiming()
			if err = next(c); err != nil {
				c.Error(err)
			}

			bucket := strings.ToLower(fmt.Sprintf("response.%s.%s.%s.%d", config.Service, req.Method, c.Path(), res.Status))
			if config.Log != nil {
				config.Log.Debugw("statsd timing", "bucket", bucket)
			}
			t.Send(bucket)

			return
		}
	}, nil
}
