package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultMaxLoggedBody = 4 << 10

type (
	// LogRequestConfig controls what LogRequest writes for each request.
	LogRequestConfig struct {
		Logger  Logger
		Skipper Skipper
		// MaxBodyBytes caps logged request and response bodies. Zero means 4KiB,
		// a negative value disables body logging.
		MaxBodyBytes int
		QueryParams  bool
		KeyAndValues func(c echo.Context) []interface{}
	}

	bodyDumpWriter struct {
		io.Writer
		http.ResponseWriter
	}
)

// LogRequest writes one line per request at a level picked from the status.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = defaultMaxLoggedBody
	}
	logBodies := config.MaxBodyBytes > 0

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			res := c.Response()

			var reqBody []byte
			if logBodies && isJSON(req.Header.Get(echo.HeaderContentType)) {
				reqBody, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(reqBody))
			}
			var resBuf bytes.Buffer
			if logBodies {
				res.Writer = &bodyDumpWriter{
					Writer:         io.MultiWriter(res.Writer, &resBuf),
					ResponseWriter: res.Writer,
				}
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := make([]interface{}, 0, 24)
			args = append(args,
				"status", res.Status,
				"method", req.Method,
				"route", c.Path(),
				"uri", req.RequestURI,
				"latency_ms", time.Since(start).Milliseconds(),
				"real_ip", c.RealIP(),
				"request_id", GetRequestID(c),
			)
			if params := pathParams(c); len(params) > 0 {
				args = append(args, "params", params)
			}
			if config.QueryParams && len(c.QueryParams()) > 0 {
				args = append(args, "query", c.QueryParams())
			}
			if client := req.Header.Get("x-client"); client != "" {
				args = append(args, "client", client)
			}
			if userID := GetUserID(c); userID != "" {
				args = append(args, "user_id", userID)
			}
			if config.KeyAndValues != nil {
				args = append(args, config.KeyAndValues(c)...)
			}
			if body := loggableBody(reqBody, config.MaxBodyBytes); body != nil {
				args = append(args, "request_body", body)
			}
			if isJSON(res.Header().Get(echo.HeaderContentType)) {
				if body := loggableBody(resBuf.Bytes(), config.MaxBodyBytes); body != nil {
					args = append(args, "response_body", body)
				}
			}

			const message = "http request"
			switch {
			case res.Status >= 500:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw(message, args...)
			case res.Status >= 400:
				config.Logger.Warnw(message, args...)
			default:
				config.Logger.Infow(message, args...)
			}
			return err
		}
	}
}

func pathParams(c echo.Context) map[string]string {
	names := c.ParamNames()
	if len(names) == 0 {
		return nil
	}
	params := make(map[string]string, len(names))
	for _, name := range names {
		params[name] = c.Param(name)
	}
	return params
}

// loggableBody keeps small valid JSON as raw JSON and cuts anything else down
// to a string of at most limit bytes.
func loggableBody(b []byte, limit int) interface{} {
	if len(b) == 0 {
		return nil
	}
	if len(b) <= limit && json.Valid(b) {
		return json.RawMessage(b)
	}
	if len(b) > limit {
		return string(b[:limit]) + "...(truncated)"
	}
	return string(b)
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, echo.MIMEApplicationJSON)
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *bodyDumpWriter) Flush() {
	w.ResponseWriter.(http.Flusher).Flush()
}

func (w *bodyDumpWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}
