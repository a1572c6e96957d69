// file: internal/handlers/api/v1/applications/applications_controller.go
package applications

import (
	"net/http"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/handlers/api/v1/common"
	"scholarhub/internal/models"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// ApplicationController drives the application lifecycle over HTTP
type ApplicationController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewApplicationController creates a new application controller
func NewApplicationController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *ApplicationController {
	return &ApplicationController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

type filterQuery struct {
	Status      models.ApplicationStatus `schema:"status"`
	Type        models.ListingKind       `schema:"type"`
	ListingID   *int64                   `schema:"listing_id"`
	ApplicantID *int64                   `schema:"applicant_id"`
}

func (q filterQuery) filter() (models.ApplicationFilter, error) {
	if q.Status != "" && !q.Status.Valid() {
		return models.ApplicationFilter{}, services.NewValidationError("Unknown status "+string(q.Status), nil)
	}
	if q.Type != "" && q.Type != models.ListingJob && q.Type != models.ListingScholarship {
		return models.ApplicationFilter{}, services.NewValidationError("Unknown type "+string(q.Type), nil)
	}
	return models.ApplicationFilter{Status: q.Status, Kind: q.Type, ListingID: q.ListingID, ApplicantID: q.ApplicantID}, nil
}

// ===============================
// APPLICANT ENDPOINTS
// ===============================

// Create - POST /api/v1/applications
func (c *ApplicationController) Create(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.CreateApplicationRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	app, err := c.serviceCollection.ApplicationService.Create(r.Context(), principal, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	contextutils.GetLogger(r.Context(), c.logger).Info("Application created",
		zap.Int64("application_id", app.ID),
		zap.String("type", string(app.Target.Kind)),
	)
	c.responseBuilder.WriteCreated(w, r, app)
}

// ListMine - GET /api/v1/applications
func (c *ApplicationController) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	page, err := c.serviceCollection.ApplicationService.ListForApplicant(r.Context(), principal, params)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	response.WritePage(c.responseBuilder, w, r, page)
}

// Get - GET /api/v1/applications/{id}
func (c *ApplicationController) Get(w http.ResponseWriter, r *http.Request) {
	c.withApplication(w, r, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.Get(r.Context(), p, id)
	})
}

// UpdateContent - PATCH /api/v1/applications/{id}/content
func (c *ApplicationController) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateContentRequest
	c.withBody(w, r, &req, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.UpdateContent(r.Context(), p, id, &req)
	})
}

// Submit - POST /api/v1/applications/{id}/submit
func (c *ApplicationController) Submit(w http.ResponseWriter, r *http.Request) {
	c.withApplication(w, r, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.Submit(r.Context(), p, id)
	})
}

// Restart - POST /api/v1/applications/{id}/restart
func (c *ApplicationController) Restart(w http.ResponseWriter, r *http.Request) {
	c.withApplication(w, r, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.Restart(r.Context(), p, id)
	})
}

// Withdraw - POST /api/v1/applications/{id}/withdraw
func (c *ApplicationController) Withdraw(w http.ResponseWriter, r *http.Request) {
	c.withApplication(w, r, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.Withdraw(r.Context(), p, id)
	})
}

// Delete - DELETE /api/v1/applications/{id}
func (c *ApplicationController) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := c.serviceCollection.ApplicationService.Delete(r.Context(), principal, id); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteNoContent(w, r)
}

// ===============================
// BACK-OFFICE ENDPOINTS
// ===============================

// ListAdmin - GET /api/v1/applications/admin
func (c *ApplicationController) ListAdmin(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var query filterQuery
	if err := common.DecodeQuery(r, &query); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	filter, err := query.filter()
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	page, err := c.serviceCollection.ApplicationService.ListAdmin(r.Context(), principal, &services.ListApplicationsRequest{
		Filter:           filter,
		PaginationParams: params,
	})
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	response.WritePage(c.responseBuilder, w, r, page)
}

// Stats - GET /api/v1/applications/stats
func (c *ApplicationController) Stats(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var query filterQuery
	if err := common.DecodeQuery(r, &query); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	filter, err := query.filter()
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	stats, err := c.serviceCollection.ApplicationService.Stats(r.Context(), principal, filter)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, stats)
}

// SetStatus - PUT /api/v1/applications/{id}/status
func (c *ApplicationController) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req services.SetStatusRequest
	c.withBody(w, r, &req, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.SetStatus(r.Context(), p, id, &req)
	})
}

// AddNote - POST /api/v1/applications/{id}/notes
func (c *ApplicationController) AddNote(w http.ResponseWriter, r *http.Request) {
	var req services.ReviewNoteRequest
	c.withBody(w, r, &req, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.AddReviewNote(r.Context(), p, id, &req)
	})
}

// ScheduleInterview - PUT /api/v1/applications/{id}/interview
func (c *ApplicationController) ScheduleInterview(w http.ResponseWriter, r *http.Request) {
	var req models.InterviewUpdate
	c.withBody(w, r, &req, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.ScheduleInterview(r.Context(), p, id, &req)
	})
}

// UpdatePayment - PUT /api/v1/applications/{id}/payment
func (c *ApplicationController) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentUpdate
	c.withBody(w, r, &req, func(p *models.Principal, id int64) (*models.Application, error) {
		return c.serviceCollection.ApplicationService.UpdatePayment(r.Context(), p, id, &req)
	})
}

// ===============================
// HELPERS
// ===============================

type applicationOp func(p *models.Principal, id int64) (*models.Application, error)

// withApplication resolves the caller and route ID, runs op and writes
// the resulting application.
func (c *ApplicationController) withApplication(w http.ResponseWriter, r *http.Request, op applicationOp) {
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

	app, err := op(principal, id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, app)
}

// withBody decodes the JSON body into dst before running op.
func (c *ApplicationController) withBody(w http.ResponseWriter, r *http.Request, dst interface{}, op applicationOp) {
	if err := common.DecodeJSON(r, dst); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.withApplication(w, r, op)
}
