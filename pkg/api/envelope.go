package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Package api contains the typed client for the PromptRepo backend and the
// response envelope union every call resolves to.

// Kind is the explicit discriminant of the envelope union. It is determined
// exactly once, when the raw response is normalized at the network boundary,
// and never re-derived from field presence downstream.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
	KindPaginated
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindPaginated:
		return "paginated"
	default:
		return "success"
	}
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Error type URIs for failures synthesized by the client itself.
const (
	TypeTimeout = "/errors/timeout"
	TypeNetwork = "/errors/network"
)

// Meta is stamped onto every envelope the client returns.
type Meta struct {
	Timestamp     string `json:"timestamp"`
	RequestID     string `json:"request_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Version       string `json:"version,omitempty"`
}

// Pagination describes the window of a paginated response.
type Pagination struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// FieldError is a field-level validation failure attached to an Error envelope.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Envelope is the normalized wrapper returned for every API call. Exactly one
// Kind applies per envelope; envelopes are constructed fresh per call and
// never mutated afterwards.
type Envelope struct {
	Kind Kind `json:"-"`

	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`

	Type   string       `json:"type,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`

	Pagination *Pagination `json:"pagination,omitempty"`

	Meta Meta `json:"meta"`
}

// IsError reports whether the envelope is the error variant.
func (e *Envelope) IsError() bool {
	return e != nil && e.Kind == KindError
}

// Err returns the envelope as a Go error, or nil for success variants.
func (e *Envelope) Err() error {
	if e == nil || e.Kind != KindError {
		return nil
	}
	return &Error{
		StatusCode: e.StatusCode,
		Type:       e.Type,
		Title:      e.Title,
		Detail:     e.Detail,
		Fields:     e.Errors,
	}
}

// DecodeData unmarshals the envelope payload into v.
func (e *Envelope) DecodeData(v any) error {
	if e == nil {
		return fmt.Errorf("envelope is nil")
	}
	if e.Kind == KindError {
		return fmt.Errorf("cannot decode payload of an error envelope")
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("envelope has no payload")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode envelope payload: %w", err)
	}
	return nil
}

// legacyBody is the older {success, data, message, error} response shape some
// endpoints still emit. It is tolerated and normalized into the envelope union.
type legacyBody struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// looseBody captures the error-ish fields an arbitrary JSON object may carry.
type looseBody struct {
	Title  string       `json:"title"`
	Detail string       `json:"detail"`
	Error  string       `json:"error"`
	Errors []FieldError `json:"errors"`
}

// normalize turns a raw HTTP body + status into exactly one envelope variant.
func normalize(body []byte, httpStatus int, meta Meta) *Envelope {
	if len(bytes.TrimSpace(body)) == 0 {
		// 204s and other bodyless responses.
		if httpSuccess(httpStatus) {
			return successEnvelope(nil, "", httpStatus, meta)
		}
		return looseErrorEnvelope(nil, httpStatus, meta)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		// Not a JSON object: arrays and scalars are still a valid payload on
		// success, anything else is synthesized into an error.
		if json.Valid(body) && httpSuccess(httpStatus) {
			return successEnvelope(json.RawMessage(body), "", httpStatus, meta)
		}
		return unparseableEnvelope(body, httpStatus, meta)
	}

	_, hasStatus := fields["status"]
	_, hasMeta := fields["meta"]
	if hasStatus && hasMeta {
		return passthroughEnvelope(body, httpStatus, meta)
	}

	if _, hasSuccess := fields["success"]; hasSuccess {
		return legacyEnvelope(body, httpStatus, meta)
	}

	if httpSuccess(httpStatus) {
		return successEnvelope(json.RawMessage(body), "", httpStatus, meta)
	}
	return looseErrorEnvelope(body, httpStatus, meta)
}

// passthroughEnvelope handles bodies already shaped like the envelope union.
// The server's fields are preserved; only the Kind discriminant and a fresh
// metadata timestamp are applied.
func passthroughEnvelope(body []byte, httpStatus int, meta Meta) *Envelope {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return unparseableEnvelope(body, httpStatus, meta)
	}

	switch {
	case env.Type != "" && env.Title != "":
		env.Kind = KindError
		env.Status = statusError
	case env.Status == statusError:
		env.Kind = KindError
		if env.Type == "" {
			env.Type = httpTypeURI(httpStatus)
		}
		if env.Title == "" {
			env.Title = statusTitle(httpStatus)
		}
	case env.Pagination != nil:
		env.Kind = KindPaginated
		env.Status = statusSuccess
	default:
		env.Kind = KindSuccess
		env.Status = statusSuccess
	}

	if env.StatusCode == 0 {
		env.StatusCode = httpStatus
	}
	env.Meta.Timestamp = meta.Timestamp
	if env.Meta.RequestID == "" {
		env.Meta.RequestID = meta.RequestID
	}
	if env.Meta.CorrelationID == "" {
		env.Meta.CorrelationID = meta.CorrelationID
	}
	return &env
}

// legacyEnvelope normalizes the legacy {success, data, message, error} shape.
func legacyEnvelope(body []byte, httpStatus int, meta Meta) *Envelope {
	var legacy legacyBody
	if err := json.Unmarshal(body, &legacy); err != nil {
		return unparseableEnvelope(body, httpStatus, meta)
	}

	if legacy.Success != nil && *legacy.Success {
		return successEnvelope(legacy.Data, legacy.Message, httpStatus, meta)
	}

	title := legacy.Message
	if title == "" {
		title = statusTitle(httpStatus)
	}
	return &Envelope{
		Kind:       KindError,
		Status:     statusError,
		StatusCode: httpStatus,
		Type:       httpTypeURI(httpStatus),
		Title:      title,
		Detail:     legacy.Error,
		Meta:       meta,
	}
}

// looseErrorEnvelope wraps an arbitrary JSON object returned with a failure
// status, salvaging whatever title/detail/error fields it carries.
func looseErrorEnvelope(body []byte, httpStatus int, meta Meta) *Envelope {
	var loose looseBody
	_ = json.Unmarshal(body, &loose)

	title := loose.Title
	if title == "" {
		title = statusTitle(httpStatus)
	}
	detail := loose.Detail
	if detail == "" {
		detail = loose.Error
	}
	if detail == "" {
		detail = fmt.Sprintf("the server responded with HTTP %d", httpStatus)
	}
	return &Envelope{
		Kind:       KindError,
		Status:     statusError,
		StatusCode: httpStatus,
		Type:       httpTypeURI(httpStatus),
		Title:      title,
		Detail:     detail,
		Errors:     loose.Errors,
		Meta:       meta,
	}
}

// unparseableEnvelope covers bodies that could not be decoded as JSON.
func unparseableEnvelope(body []byte, httpStatus int, meta Meta) *Envelope {
	return &Envelope{
		Kind:       KindError,
		Status:     statusError,
		StatusCode: httpStatus,
		Type:       httpTypeURI(httpStatus),
		Title:      statusTitle(httpStatus),
		Detail:     fmt.Sprintf("response body was not valid JSON (HTTP %d, %d bytes)", httpStatus, len(body)),
		Meta:       meta,
	}
}

func successEnvelope(data json.RawMessage, message string, httpStatus int, meta Meta) *Envelope {
	return &Envelope{
		Kind:       KindSuccess,
		Status:     statusSuccess,
		StatusCode: httpStatus,
		Data:       data,
		Message:    message,
		Meta:       meta,
	}
}

// timeoutEnvelope reports an aborted request. No HTTP status exists for a
// request that never completed, so StatusCode stays zero.
func timeoutEnvelope(meta Meta) *Envelope {
	return &Envelope{
		Kind:   KindError,
		Status: statusError,
		Type:   TypeTimeout,
		Title:  "Request Timeout",
		Detail: "The request timed out. Please try again.",
		Meta:   meta,
	}
}

func networkEnvelope(err error, meta Meta) *Envelope {
	detail := "the request could not be sent"
	if err != nil {
		detail = err.Error()
	}
	return &Envelope{
		Kind:   KindError,
		Status: statusError,
		Type:   TypeNetwork,
		Title:  "Network Error",
		Detail: detail,
		Meta:   meta,
	}
}

func httpSuccess(status int) bool {
	return status >= 200 && status <= 299
}

func httpTypeURI(status int) string {
	return fmt.Sprintf("/errors/http-%d", status)
}

func statusTitle(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown Status"
}

// stampMeta builds the metadata block for an outgoing request, echoing the
// request/correlation IDs from the merged request headers when present.
func stampMeta(headers map[string]string) Meta {
	meta := Meta{Timestamp: time.Now().UTC().Format(time.RFC3339)}
	for k, v := range headers {
		switch strings.ToLower(k) {
		case "x-request-id":
			meta.RequestID = v
		case "x-correlation-id":
			meta.CorrelationID = v
		}
	}
	return meta
}
