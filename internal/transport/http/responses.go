package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"mongosuite/internal/mongodb"
)

// maxOperationBody caps how much of a request body an operation endpoint
// reads. Larger payloads are rejected earlier by the validation middleware;
// the limit here keeps a handler reached outside that chain bounded too.
const maxOperationBody = 1 << 20

// respondData writes the success envelope around an operation result.
func respondData(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondError writes the failure envelope with the given status code.
func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// decodeBody reads the request body into a payload map. An absent or empty
// body decodes to an empty map so operations that take no arguments accept a
// bare POST; anything else must be a JSON object.
func decodeBody(r *http.Request) (map[string]interface{}, error) {
	if r.Body == nil {
		return map[string]interface{}{}, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxOperationBody))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]interface{}{}, nil
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return payload, nil
}

// executeOperation is the shared request path for every operation endpoint:
// decode the payload, run the named operation, and wrap the outcome in the
// envelope. Malformed bodies and input-class operation errors map to 400,
// everything else to 500.
func executeOperation(w http.ResponseWriter, r *http.Request, svc OperationService, logger *slog.Logger, name string) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	payload, err := decodeBody(r)
	if err != nil {
		logger.WarnContext(ctx, "malformed request body",
			slog.String("operation", name),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	result, err := svc.Execute(ctx, name, payload)
	if err != nil {
		status := http.StatusInternalServerError
		if mongodb.IsInputError(err) {
			status = http.StatusBadRequest
		}
		logger.ErrorContext(ctx, "operation request failed",
			slog.String("operation", name),
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("request_id", reqID),
		)
		respondError(w, r, status, err)
		return
	}

	respondData(w, r, result)
}
