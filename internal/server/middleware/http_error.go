package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusClientClosed is reported when the caller went away mid-request.
const StatusClientClosed = 499

var httpStatusByCode = map[codes.Code]int{
	codes.OK:                 http.StatusOK,
	codes.Canceled:           StatusClientClosed,
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.Aborted:            http.StatusConflict,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.FailedPrecondition: http.StatusUnprocessableEntity,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
}

// HTTPStatus maps a gRPC code to the status rendered to HTTP callers.
func HTTPStatus(code codes.Code) int {
	if s, ok := httpStatusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// NewResponseError converts err into the error envelope.
func NewResponseError(c echo.Context, err error) *ResponseError {
	var re *ResponseError
	if errors.As(err, &re) {
		return re
	}

	resp := &ResponseError{
		Status:  http.StatusInternalServerError,
		Success: false,
		Err:     err,
	}

	var he *echo.HTTPError
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &he):
		resp.Status = he.Code
		resp.ErrorCode = http.StatusText(he.Code)
		resp.ErrorMessage = fmt.Sprint(he.Message)
		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}
	case errors.As(err, &ve):
		resp.Status = http.StatusBadRequest
		resp.ErrorCode = codes.InvalidArgument.String()
		resp.ErrorMessage = ve.Error()
	case errors.Is(err, context.Canceled) && c.Request().Context().Err() != nil:
		resp.Status = StatusClientClosed
		resp.ErrorCode = codes.Canceled.String()
		resp.ErrorMessage = err.Error()
	default:
		st, _ := status.FromError(err)
		resp.Status = HTTPStatus(st.Code())
		resp.ErrorCode = st.Code().String()
		resp.ErrorMessage = st.Message()
		if resp.Status == http.StatusInternalServerError {
			resp.ErrorMessage = http.StatusText(http.StatusInternalServerError)
		}
	}
	return resp
}

// ErrorHandler renders every handler error as a ResponseError.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		resp := NewResponseError(c, err)
		if resp.Status >= http.StatusInternalServerError {
			log.Errorw("request failed", "status", resp.Status, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(resp.Status)
		} else {
			err = c.JSON(resp.Status, resp)
		}
		if err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}
