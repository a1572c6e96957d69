// file: internal/models/models.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ===============================
// PAGINATION & QUERY HELPERS
// ===============================

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Limit  int    `json:"limit" validate:"min=1,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
	Cursor string `json:"cursor,omitempty"`
	Sort   string `json:"sort,omitempty" validate:"omitempty,oneof=created_at updated_at deadline status progress"`
	Order  string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
	Filters    map[string]any `json:"filters,omitempty"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage  int    `json:"current_page"`
	TotalPages   int    `json:"total_pages"`
	TotalItems   int64  `json:"total_items"`
	ItemsPerPage int    `json:"items_per_page"`
	HasNext      bool   `json:"has_next"`
	HasPrev      bool   `json:"has_prev"`
	NextCursor   string `json:"next_cursor,omitempty"`
	PrevCursor   string `json:"prev_cursor,omitempty"`
}

// DefaultPagination returns the parameters used when a caller sends none.
func DefaultPagination() PaginationParams {
	return PaginationParams{Limit: 20, Offset: 0, Sort: "created_at", Order: "desc"}
}

// Normalize clamps limit and offset into their allowed ranges.
func (p *PaginationParams) Normalize() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Order != "asc" {
		p.Order = "desc"
	}
	if p.Sort == "" {
		p.Sort = "created_at"
	}
}

// ===============================
// CUSTOM TYPES
// ===============================

// StringArray handles PostgreSQL array types
type StringArray []string

// Scan implements sql.Scanner
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		v = strings.Trim(v, "{}")
		if v == "" {
			*s = StringArray{}
			return nil
		}
		parts := strings.Split(v, ",")
		for i, part := range parts {
			parts[i] = strings.Trim(part, `"`)
		}
		*s = StringArray(parts)
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// Value implements driver.Valuer
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	quoted := make([]string, len(s))
	for i, item := range s {
		quoted[i] = `"` + strings.ReplaceAll(item, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}", nil
}

// JSONMap is a free-form object persisted as JSONB.
type JSONMap map[string]any

// Scan implements sql.Scanner
func (m *JSONMap) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// scanJSON decodes a JSONB column into dest. NULL leaves dest untouched.
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dest)
	}
}

// jsonValue encodes v for a JSONB column.
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}
