// File: internal/response/pagination.go
package response

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scholarhub/internal/models"
	"scholarhub/internal/services"

	"golang.org/x/exp/slices"
)

// ===============================
// PAGINATION CONFIGURATION
// ===============================

// PaginationConfig holds pagination configuration
type PaginationConfig struct {
	DefaultPageSize int      `json:"default_page_size"`
	MaxPageSize     int      `json:"max_page_size"`
	SortFields      []string `json:"sort_fields"`
}

// DefaultPaginationConfig returns default pagination configuration
func DefaultPaginationConfig() *PaginationConfig {
	return &PaginationConfig{
		DefaultPageSize: 20,
		MaxPageSize:     100,
		SortFields:      []string{"created_at", "updated_at", "deadline", "status", "progress"},
	}
}

// ===============================
// PAGINATION PARSER
// ===============================

// PaginationParser reads paging parameters from a query string. It
// accepts either page/page_size or limit/offset.
type PaginationParser struct {
	config *PaginationConfig
}

// NewPaginationParser creates a new pagination parser
func NewPaginationParser(config *PaginationConfig) *PaginationParser {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	return &PaginationParser{config: config}
}

// ParseFromQuery parses pagination parameters from query string
func (p *PaginationParser) ParseFromQuery(query url.Values) (models.PaginationParams, error) {
	params := models.PaginationParams{Limit: p.config.DefaultPageSize, Order: "desc", Sort: "created_at"}

	size, err := p.positiveInt(query, "page_size", "limit")
	if err != nil {
		return params, err
	}
	if size > 0 {
		if size > p.config.MaxPageSize {
			return params, fmt.Errorf("page size cannot exceed %d", p.config.MaxPageSize)
		}
		params.Limit = size
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return params, fmt.Errorf("invalid offset parameter: %s", raw)
		}
		params.Offset = offset
	} else if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid page parameter: %s", raw)
		}
		params.Offset = (page - 1) * params.Limit
	}

	if sort := query.Get("sort"); sort != "" {
		if !slices.Contains(p.config.SortFields, sort) {
			return params, fmt.Errorf("invalid sort field: %s. Allowed fields: %s", sort, strings.Join(p.config.SortFields, ", "))
		}
		params.Sort = sort
	}
	if order := strings.ToLower(query.Get("order")); order != "" {
		if order != "asc" && order != "desc" {
			return params, fmt.Errorf("order must be either 'asc' or 'desc'")
		}
		params.Order = order
	}
	return params, nil
}

// ParseFromRequest parses pagination parameters from HTTP request and
// reports malformed values as validation errors.
func (p *PaginationParser) ParseFromRequest(r *http.Request) (models.PaginationParams, error) {
	params, err := p.ParseFromQuery(r.URL.Query())
	if err != nil {
		return params, services.NewValidationError(err.Error(), err)
	}
	return params, nil
}

// positiveInt returns the first of names present in query.
func (p *PaginationParser) positiveInt(query url.Values, names ...string) (int, error) {
	for _, name := range names {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("invalid %s parameter: %s", name, raw)
		}
		return n, nil
	}
	return 0, nil
}

// CalculateTotalPages returns the number of pages needed for total items.
func CalculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// WritePage writes a repository page with its metadata.
func WritePage[T any](b *Builder, w http.ResponseWriter, r *http.Request, page *models.PaginatedResponse[T]) {
	data := page.Data
	if data == nil {
		data = []T{}
	}
	meta := page.Pagination
	if meta.TotalPages == 0 && meta.ItemsPerPage > 0 {
		meta.TotalPages = CalculateTotalPages(meta.TotalItems, meta.ItemsPerPage)
	}
	b.WritePaginated(w, r, data, meta, page.Filters)
}
