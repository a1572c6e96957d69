// file: internal/handlers/api/v1/applicants/applicants_controller.go
package applicants

import (
	"net/http"

	"scholarhub/internal/handlers/api/v1/common"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// ApplicantController serves applicant profiles
type ApplicantController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewApplicantController creates a new applicant controller
func NewApplicantController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *ApplicantController {
	return &ApplicantController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// GetMine - GET /api/v1/applicants/me
func (c *ApplicantController) GetMine(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	applicant, err := c.serviceCollection.ApplicantService.GetMine(r.Context(), principal)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, applicant)
}

// UpsertMine - PUT /api/v1/applicants/me
func (c *ApplicantController) UpsertMine(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.ApplicantProfileRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	applicant, err := c.serviceCollection.ApplicantService.UpsertMine(r.Context(), principal, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, applicant)
}

// GetByID - GET /api/v1/applicants/{id}
func (c *ApplicantController) GetByID(w http.ResponseWriter, r *http.Request) {
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

	applicant, err := c.serviceCollection.ApplicantService.GetByID(r.Context(), principal, id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, applicant)
}
