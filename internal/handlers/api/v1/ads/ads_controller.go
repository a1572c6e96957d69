// file: internal/handlers/api/v1/ads/ads_controller.go
package ads

import (
	"net/http"

	"scholarhub/internal/handlers/api/v1/common"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// AdController serves advertisements and their click tracking
type AdController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewAdController creates a new ad controller
func NewAdController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *AdController {
	return &AdController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

type placementQuery struct {
	Placement string `schema:"placement"`
}

// ListLive - GET /api/v1/ads?placement=
// Every ad returned counts as one impression.
func (c *AdController) ListLive(w http.ResponseWriter, r *http.Request) {
	var query placementQuery
	if err := common.DecodeQuery(r, &query); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	page, err := c.serviceCollection.AdService.ListLive(r.Context(), query.Placement, params)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	response.WritePage(c.responseBuilder, w, r, page)
}

// ListAll - GET /api/v1/ads/all?placement=
func (c *AdController) ListAll(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var query placementQuery
	if err := common.DecodeQuery(r, &query); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	page, err := c.serviceCollection.AdService.ListAll(r.Context(), principal, query.Placement, params)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	response.WritePage(c.responseBuilder, w, r, page)
}

// Create - POST /api/v1/ads
func (c *AdController) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.AdRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	ad, err := c.serviceCollection.AdService.Create(r.Context(), principal, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteCreated(w, r, ad)
}

// Update - PUT /api/v1/ads/{id}
func (c *AdController) Update(w http.ResponseWriter, r *http.Request) {
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
	var req services.AdRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	ad, err := c.serviceCollection.AdService.Update(r.Context(), principal, id, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, ad)
}

// Delete - DELETE /api/v1/ads/{id}
func (c *AdController) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := c.serviceCollection.AdService.Delete(r.Context(), principal, id); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteNoContent(w, r)
}

// Click - POST /api/v1/ads/{id}/click
// Responds with the ad so the client can follow its link.
func (c *AdController) Click(w http.ResponseWriter, r *http.Request) {
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	ad, err := c.serviceCollection.AdService.RecordClick(r.Context(), id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, ad)
}
