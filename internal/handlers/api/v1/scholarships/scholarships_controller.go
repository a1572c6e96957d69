// file: internal/handlers/api/v1/scholarships/scholarships_controller.go
package scholarships

import (
	"net/http"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/handlers/api/v1/common"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// ScholarshipController serves scholarship listings
type ScholarshipController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewScholarshipController creates a new scholarship controller
func NewScholarshipController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *ScholarshipController {
	return &ScholarshipController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// Create - POST /api/v1/scholarships
func (c *ScholarshipController) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.ScholarshipRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	s, err := c.serviceCollection.ListingService.CreateScholarship(r.Context(), principal, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	contextutils.GetLogger(r.Context(), c.logger).Info("Scholarship created", zap.Int64("scholarship_id", s.ID))
	c.responseBuilder.WriteCreated(w, r, s)
}

// List - GET /api/v1/scholarships
func (c *ScholarshipController) List(w http.ResponseWriter, r *http.Request) {
	req, err := common.ListingRequest(r, c.paginationParser)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	page, err := c.serviceCollection.ListingService.ListScholarships(r.Context(), contextutils.GetPrincipal(r.Context()), req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	response.WritePage(c.responseBuilder, w, r, page)
}

// Get - GET /api/v1/scholarships/{id}
func (c *ScholarshipController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	s, err := c.serviceCollection.ListingService.GetScholarship(r.Context(), contextutils.GetPrincipal(r.Context()), id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, s)
}

// Update - PUT /api/v1/scholarships/{id}
func (c *ScholarshipController) Update(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.ScholarshipRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	s, err := c.serviceCollection.ListingService.UpdateScholarship(r.Context(), principal, id, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, s)
}

// Delete - DELETE /api/v1/scholarships/{id}
func (c *ScholarshipController) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	if err := c.serviceCollection.ListingService.DeleteScholarship(r.Context(), principal, id); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteNoContent(w, r)
}
