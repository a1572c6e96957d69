package docs

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Success   bool        `json:"success" example:"true"`
	Data      interface{} `json:"data,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	RequestID string      `json:"request_id" example:"0b7c6f0e-2d0a-4bb4-9f3c-2d1b1c7e9a10"`
	Timestamp int64       `json:"timestamp" example:"1760000000"`
	Version   string      `json:"version" example:"v1"`
}

// Meta carries pagination for list endpoints
type Meta struct {
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage  int   `json:"current_page" example:"1"`
	TotalPages   int   `json:"total_pages" example:"5"`
	TotalItems   int64 `json:"total_items" example:"95"`
	ItemsPerPage int   `json:"items_per_page" example:"20"`
	HasNext      bool  `json:"has_next" example:"true"`
	HasPrev      bool  `json:"has_prev" example:"false"`
}

// ErrorEnvelope is the body of every non-2xx JSON response
type ErrorEnvelope struct {
	Success   bool        `json:"success" example:"false"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id"`
}

// ErrorDetail describes what went wrong
type ErrorDetail struct {
	Type    string       `json:"type" example:"PRECONDITION_FAILED"`
	Code    string       `json:"code,omitempty" example:"INCOMPLETE_APPLICATION"`
	Message string       `json:"message" example:"Application must be 100% complete before submission"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError is one rejected input field
type FieldError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"must be a valid email address"`
	Code    string `json:"code,omitempty" example:"email"`
}

// HealthCheckResponse represents the health check response
type HealthCheckResponse struct {
	Status      string  `json:"status" example:"healthy"`
	Timestamp   int64   `json:"timestamp" example:"1760000000"`
	Version     string  `json:"version,omitempty" example:"1.0.0"`
	Environment string  `json:"environment,omitempty" example:"production"`
	Uptime      float64 `json:"uptime_seconds,omitempty" example:"3600"`
}
