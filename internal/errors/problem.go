package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// Problem type URIs. Relative references are allowed by RFC 7807 and keep
// the documents independent of the deployment host.
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeTimeout         = "/errors/timeout"
	TypeConflict        = "/errors/conflict"
	TypePayloadTooLarge = "/errors/payload-too-large"

	TypeDatabaseUnavailable = "/errors/database/unavailable"
	TypeUnknownOperation    = "/errors/operation/unknown"
)

// ProblemDetails is the RFC 7807 problem document the harness answers with
// when a request fails before reaching an operation. Operation outcomes use
// the success/error envelope; problems cover routing, method, payload, and
// infrastructure failures.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extensions are flattened into the document on marshal.
	Extensions map[string]interface{} `json:"-"`
}

// NewProblemDetails builds a problem document from the five standard members.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WithExtension attaches an extension member, allocating the map on first
// use, and returns the document for chaining.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{}, 1)
	}
	pd.Extensions[key] = value
	return pd
}

// Render sets the response status from the document.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON flattens extensions next to the standard members. Standard
// members are written after the extensions so an extension cannot shadow
// them.
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	doc := make(map[string]interface{}, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		doc[k] = v
	}
	doc["type"] = pd.Type
	doc["title"] = pd.Title
	doc["status"] = pd.Status
	if pd.Detail != "" {
		doc["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		doc["instance"] = pd.Instance
	}
	return json.Marshal(doc)
}
