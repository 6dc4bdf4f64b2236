package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/product-hub/internal/formerror"
	"github.com/nguyentranbao-ct/product-hub/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusClientClosedRequest is reported when the caller went away mid request.
const StatusClientClosedRequest = 499

// ErrorBody is written for every non validation failure.
type ErrorBody struct {
	Message string `json:"message"`
}

// ValidationBody lists per field messages, status 422.
type ValidationBody struct {
	Message string              `json:"message"`
	Errors  []models.FieldError `json:"errors"`
}

// ErrorHandler return custom http error handler.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		code, body := errorResponse(err, c)
		if code >= http.StatusInternalServerError {
			log.Errorw("request failed", "code", code, "error", err.Error(), "request_id", GetRequestID(c))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			log.Errorw("could not response", "code", code, "response_body", body, "error", werr)
		}
	}
}

func errorResponse(err error, c echo.Context) (int, interface{}) {
	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		msg := fmt.Sprint(herr.Message)
		if herr.Code == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			msg = "no route matched"
		}
		return herr.Code, &ErrorBody{Message: msg}
	}

	var verr *formerror.ValidationError
	if !errors.As(err, &verr) {
		verr = formerror.FromValidator(err)
	}
	if verr != nil {
		return http.StatusUnprocessableEntity, &ValidationBody{
			Message: verr.Error(),
			Errors:  verr.Errors,
		}
	}

	if errors.Is(err, context.Canceled) && errors.Is(c.Request().Context().Err(), context.Canceled) {
		return StatusClientClosedRequest, &ErrorBody{Message: "request canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, &ErrorBody{Message: "request timed out"}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return codeToHTTP(st.Code()), &ErrorBody{Message: st.Message()}
	}

	return http.StatusInternalServerError, &ErrorBody{Message: http.StatusText(http.StatusInternalServerError)}
}

func codeToHTTP(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return StatusClientClosedRequest
	case codes.Unimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
