package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// problemTypeByCode maps the error codes this module raises onto problem
// type URIs. Codes not listed fall back to TypeInternal.
var problemTypeByCode = map[string]string{
	"INVALID_REQUEST":      TypeValidation,
	"VALIDATION_FAILED":    TypeValidation,
	"PAYLOAD_TOO_LARGE":    TypePayloadTooLarge,
	"UNKNOWN_OPERATION":    TypeUnknownOperation,
	"RUN_IN_PROGRESS":      TypeConflict,
	"RATE_LIMIT_EXCEEDED":  TypeRateLimit,
	"OPERATION_FAILED":     TypeInternal,
	"DATABASE_UNAVAILABLE": TypeDatabaseUnavailable,
}

// ErrorHandler renders failures that happen outside the operation envelope
// as RFC 7807 problem documents. With includeStack set it attaches stack
// traces for local debugging.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs the failure and writes it as a problem document.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	render.Render(w, r, problem)
}

// ErrorToProblem picks the problem document for an error. Context
// cancellation means the request deadline fired; APIErrors carry their own
// status; anything else is treated as a driver failure.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	return h.driverErrorToProblem(err, r)
}

// apiErrorToProblem translates an APIError, keeping its status and code.
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType, ok := problemTypeByCode[apiErr.ErrorCode]
	if !ok {
		problemType = TypeInternal
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.StatusCode == http.StatusTooManyRequests {
		problem.WithExtension("retry_after", 60)
	}
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// driverErrorToProblem classifies raw driver errors by message. The driver
// wraps topology and write errors in its own types several layers deep, so
// the stable text fragments are the practical signal here.
func (h *ErrorHandler) driverErrorToProblem(err error, r *http.Request) *ProblemDetails {
	msg := err.Error()

	switch {
	case strings.Contains(msg, "server selection error"),
		strings.Contains(msg, "connection refused"):
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeDatabaseUnavailable,
			"Database Unavailable",
			"The database is not reachable. Please try again later.",
			r.URL.Path,
		)

	case strings.Contains(msg, "E11000"),
		strings.Contains(msg, "duplicate key"):
		return NewProblemDetails(
			http.StatusConflict,
			TypeConflict,
			"Duplicate Key",
			"A document with the same unique key already exists",
			r.URL.Path,
		)

	case strings.Contains(msg, "not found"):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeNotFound,
			"Resource Not Found",
			msg,
			r.URL.Path,
		)

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request",
			r.URL.Path,
		)
	}
}

// HandlePanic renders a recovered panic as a 500 problem document. The
// panic value and stack only leave the process via the response when stack
// inclusion is on.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", string(debug.Stack()))
	}

	render.Render(w, r, problem)
}

// NotFound is the router's fallback for unknown paths.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed is the router's fallback for known paths hit with the
// wrong verb.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}
