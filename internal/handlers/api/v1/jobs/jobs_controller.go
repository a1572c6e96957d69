// file: internal/handlers/api/v1/jobs/jobs_controller.go
package jobs

import (
	"net/http"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/handlers/api/v1/common"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// JobController serves job listings. Reads are public; drafts are only
// visible to the back office.
type JobController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewJobController creates a new job controller
func NewJobController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *JobController {
	return &JobController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// CreateJob - POST /api/v1/jobs
func (c *JobController) CreateJob(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.JobRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	job, err := c.serviceCollection.ListingService.CreateJob(r.Context(), principal, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	contextutils.GetLogger(r.Context(), c.logger).Info("Job created", zap.Int64("job_id", job.ID))
	c.responseBuilder.WriteCreated(w, r, job)
}

// ListJobs - GET /api/v1/jobs?status=&search=&mine=
func (c *JobController) ListJobs(w http.ResponseWriter, r *http.Request) {
	req, err := common.ListingRequest(r, c.paginationParser)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	page, err := c.serviceCollection.ListingService.ListJobs(r.Context(), contextutils.GetPrincipal(r.Context()), req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	response.WritePage(c.responseBuilder, w, r, page)
}

// GetJob - GET /api/v1/jobs/{id}
func (c *JobController) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	job, err := c.serviceCollection.ListingService.GetJob(r.Context(), contextutils.GetPrincipal(r.Context()), id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, job)
}

// UpdateJob - PUT /api/v1/jobs/{id}
func (c *JobController) UpdateJob(w http.ResponseWriter, r *http.Request) {
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
	var req services.JobRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	job, err := c.serviceCollection.ListingService.UpdateJob(r.Context(), principal, id, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, job)
}

// DeleteJob - DELETE /api/v1/jobs/{id}
func (c *JobController) DeleteJob(w http.ResponseWriter, r *http.Request) {
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

	if err := c.serviceCollection.ListingService.DeleteJob(r.Context(), principal, id); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteNoContent(w, r)
}
