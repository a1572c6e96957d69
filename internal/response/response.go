package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/models"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// ===============================
// RESPONSE CONFIGURATION
// ===============================

// Config holds configuration for the response system
type Config struct {
	PrettyJSON       bool   `json:"pretty_json"`
	IncludeRequestID bool   `json:"include_request_id"`
	IncludeTimestamp bool   `json:"include_timestamp"`
	APIVersion       string `json:"api_version"`

	// MaskInternalErrors hides the message of INTERNAL_ERROR and
	// INFRASTRUCTURE_ERROR responses.
	MaskInternalErrors bool `json:"mask_internal_errors"`
}

// DefaultConfig returns production-ready response configuration
func DefaultConfig() *Config {
	return &Config{
		IncludeRequestID:   true,
		IncludeTimestamp:   true,
		APIVersion:         "v1",
		MaskInternalErrors: true,
	}
}

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse represents a standardized API response
type APIResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *ErrorDetail  `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
	Version   string        `json:"version,omitempty"`
}

// ErrorDetail represents error information in API responses
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Fields  []FieldError           `json:"fields,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// FieldError represents field-specific validation errors
type FieldError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
}

// ResponseMeta contains metadata about the response
type ResponseMeta struct {
	Pagination *models.PaginationMeta `json:"pagination,omitempty"`
	Filters    map[string]any         `json:"filters,omitempty"`
}

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder helps construct standardized responses
type Builder struct {
	config *Config
	logger *zap.Logger
}

// NewBuilder creates a new response builder
func NewBuilder(config *Config, logger *zap.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{config: config, logger: logger}
}

// Success creates a successful API response
func (b *Builder) Success(ctx context.Context, data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: b.getRequestID(ctx),
		Timestamp: b.getTimestamp(),
		Version:   b.config.APIVersion,
	}
}

// Error creates an error response from a service error
func (b *Builder) Error(ctx context.Context, err error) *APIResponse {
	detail := b.convertError(err)
	b.logError(ctx, err, detail)
	return &APIResponse{
		Success:   false,
		Error:     detail,
		RequestID: b.getRequestID(ctx),
		Timestamp: b.getTimestamp(),
		Version:   b.config.APIVersion,
	}
}

// ===============================
// HTTP RESPONSE WRITERS
// ===============================

// WriteJSON writes a JSON response with appropriate headers
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, response *APIResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if statusCode >= 400 {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	}
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	if b.config.PrettyJSON {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(response); err != nil {
		b.logger.Error("Failed to encode JSON response",
			zap.Error(err),
			zap.String("request_id", b.getRequestID(r.Context())),
		)
	}
}

// WriteSuccess writes a successful JSON response
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusOK)
}

// WriteCreated writes a successful creation response
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusCreated)
}

// WriteNoContent writes an empty 204 response.
func (b *Builder) WriteNoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error response with appropriate status code
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	b.WriteJSON(w, r, b.Error(r.Context(), err), statusCodeFromError(err))
}

// WritePaginated writes one page of results with its pagination metadata.
func (b *Builder) WritePaginated(w http.ResponseWriter, r *http.Request, data interface{}, meta models.PaginationMeta, filters map[string]any) {
	resp := b.Success(r.Context(), data)
	resp.Meta = &ResponseMeta{Pagination: &meta, Filters: filters}
	b.WriteJSON(w, r, resp, http.StatusOK)
}

// ===============================
// UTILITY METHODS
// ===============================

// convertError converts various error types to ErrorDetail
func (b *Builder) convertError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	serviceErr := services.GetServiceError(err)
	detail := &ErrorDetail{
		Type:    serviceErr.Type,
		Message: serviceErr.Message,
		Code:    serviceErr.Code,
		Details: serviceErr.Details,
	}

	var fieldErrs models.ValidationErrors
	if errors.As(err, &fieldErrs) {
		detail.Fields = make([]FieldError, len(fieldErrs))
		for i, fe := range fieldErrs {
			detail.Fields[i] = FieldError{Field: fe.Field, Value: fe.Value, Message: fe.Message, Code: fe.Code}
		}
	}

	if b.config.MaskInternalErrors {
		switch serviceErr.Type {
		case services.ErrTypeInternal:
			detail.Message = "An internal error occurred"
			detail.Details = nil
		case services.ErrTypeInfrastructure:
			detail.Details = nil
		}
	}
	return detail
}

func statusCodeFromError(err error) int {
	if serviceErr := services.GetServiceError(err); serviceErr != nil {
		return serviceErr.GetStatusCode()
	}
	return http.StatusInternalServerError
}

func (b *Builder) getRequestID(ctx context.Context) string {
	if !b.config.IncludeRequestID {
		return ""
	}
	return contextutils.GetRequestID(ctx)
}

func (b *Builder) getTimestamp() int64 {
	if !b.config.IncludeTimestamp {
		return 0
	}
	return time.Now().Unix()
}

// logError logs at a level matching the error type.
func (b *Builder) logError(ctx context.Context, err error, detail *ErrorDetail) {
	logger := contextutils.GetLogger(ctx, b.logger)
	fields := []zap.Field{
		zap.String("error_type", detail.Type),
		zap.String("error_message", detail.Message),
		zap.String("error_code", detail.Code),
	}

	switch detail.Type {
	case services.ErrTypeInternal, services.ErrTypeInfrastructure:
		logger.Error("Request failed", append(fields, zap.Error(err))...)
	case services.ErrTypeValidation, services.ErrTypeConflict, services.ErrTypePreconditionFailed:
		logger.Warn("Request rejected", fields...)
	default:
		logger.Info("Request completed with error", fields...)
	}
}

// ===============================
// CONTEXT HELPERS
// ===============================

type builderKey struct{}

// GetBuilder extracts response builder from context
func GetBuilder(ctx context.Context) *Builder {
	builder, _ := ctx.Value(builderKey{}).(*Builder)
	return builder
}

// SetBuilder stores response builder in context
func SetBuilder(ctx context.Context, builder *Builder) context.Context {
	return context.WithValue(ctx, builderKey{}, builder)
}

// QuickSuccess is a helper for simple success responses
func QuickSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	builderFor(r).WriteSuccess(w, r, data)
}

// QuickError is a helper for simple error responses
func QuickError(w http.ResponseWriter, r *http.Request, err error) {
	builderFor(r).WriteError(w, r, err)
}

func builderFor(r *http.Request) *Builder {
	if builder := GetBuilder(r.Context()); builder != nil {
		return builder
	}
	return NewBuilder(DefaultConfig(), zap.NewNop())
}

// Middleware creates response builder middleware
func Middleware(builder *Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(SetBuilder(r.Context(), builder)))
		})
	}
}
