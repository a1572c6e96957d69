// Package common holds request helpers shared by the v1 controllers.
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/models"
	"scholarhub/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.ZeroEmpty(true)
	return d
}()

// DecodeJSON reads a single JSON object from the request body. Unknown
// fields are rejected.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return services.NewValidationError("Request body is required", err)
		case errors.As(err, &maxErr):
			return services.NewValidationError(fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), err)
		default:
			return services.NewValidationError("Invalid request body", err)
		}
	}
	if dec.More() {
		return services.NewValidationError("Request body must contain a single JSON object", nil)
	}
	return nil
}

// DecodeQuery fills dst from the query string using `schema` tags.
func DecodeQuery(r *http.Request, dst interface{}) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return services.NewValidationError("Invalid query parameters", err)
	}
	return nil
}

// PathID parses a positive integer route parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewValidationError(fmt.Sprintf("Invalid %s: %q", name, raw), err)
	}
	return id, nil
}

// Principal returns the caller or an UNAUTHORIZED error.
func Principal(r *http.Request) (*models.Principal, error) {
	p := contextutils.GetPrincipal(r.Context())
	if p == nil {
		return nil, services.NewUnauthorizedError("Authentication required")
	}
	return p, nil
}

// ListingQuery holds the filters shared by the job and scholarship lists.
type ListingQuery struct {
	Status models.ListingStatus `schema:"status"`
	Search string               `schema:"search"`
	Mine   bool                 `schema:"mine"`
}

// ListingRequest combines the listing filters with paging.
func ListingRequest(r *http.Request, parser PaginationParser) (*services.ListListingsRequest, error) {
	var query ListingQuery
	if err := DecodeQuery(r, &query); err != nil {
		return nil, err
	}
	params, err := parser.ParseFromRequest(r)
	if err != nil {
		return nil, err
	}
	return &services.ListListingsRequest{
		Status:           query.Status,
		Search:           query.Search,
		Mine:             query.Mine,
		PaginationParams: params,
	}, nil
}

// PaginationParser is satisfied by *response.PaginationParser.
type PaginationParser interface {
	ParseFromRequest(r *http.Request) (models.PaginationParams, error)
}
