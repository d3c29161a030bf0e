package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "mongosuite/internal/errors"
)

// ValidationMiddleware screens request bodies before they reach the
// operation handlers and exposes struct validation for payload types.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware builds a ValidationMiddleware with the
// collection_name rule registered and JSON tag names in error output.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()
	v.RegisterValidation("collection_name", isValidCollectionName)

	// Report fields by their json tag so errors match the wire payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  10 * 1024 * 1024,
	}
}

// ValidateRequest rejects oversized and syntactically invalid JSON bodies.
// Handlers downstream can decode the body again; it is restored after the
// syntax check.
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size",
				map[string]interface{}{
					"max_size": m.maxBodySize,
					"size":     r.ContentLength,
				},
			))
			return
		}

		if r.Body != nil && r.ContentLength > 0 {
			body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize))
			if err != nil {
				m.logger.ErrorContext(r.Context(), "failed to read request body",
					slog.String("error", err.Error()),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				m.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			// Operation endpoints answer in the success/error envelope, so
			// malformed JSON is rejected in that shape rather than as a
			// problem document.
			if len(body) > 0 && !json.Valid(body) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, map[string]interface{}{
					"success": false,
					"error":   "Request body contains invalid JSON",
				})
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateStruct runs tag validation on v and converts any failures into an
// APIError carrying per-field messages.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Struct() returns InvalidValidationError for non-struct input.
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: m.formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

func (m *ValidationMiddleware) formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch tag := err.Tag(); tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "collection_name":
		return fmt.Sprintf("%s is not a valid collection name", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

// isValidCollectionName enforces MongoDB collection naming rules.
func isValidCollectionName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	// Reserved namespace prefix
	if strings.HasPrefix(name, "system.") {
		return false
	}
	// Characters the server rejects in collection names
	if strings.ContainsAny(name, "$\x00") {
		return false
	}
	// Namespace length limit leaves roughly this much for the collection
	return len(name) <= 235
}
