// file: internal/handlers/api/v1/users/users_controller.go
package users

import (
	"net/http"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/handlers/api/v1/common"
	"scholarhub/internal/models"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// UserController handles account administration endpoints
type UserController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
}

// NewUserController creates a new user controller
func NewUserController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *UserController {
	return &UserController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

type listUsersQuery struct {
	Role models.Role `schema:"role"`
}

// GetUser - GET /api/v1/users/{userID}
func (c *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "userID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	user, err := c.serviceCollection.UserService.GetUser(r.Context(), principal, id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, user)
}

// ListUsers - GET /api/v1/admin/users?role=
func (c *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var query listUsersQuery
	if err := common.DecodeQuery(r, &query); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	if query.Role != "" && !query.Role.Valid() {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("Unknown role "+string(query.Role), nil))
		return
	}
	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	page, err := c.serviceCollection.UserService.ListUsers(r.Context(), principal, query.Role, params)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	response.WritePage(c.responseBuilder, w, r, page)
}

// CreateStaff - POST /api/v1/admin/staff
func (c *UserController) CreateStaff(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.CreateStaffRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	account, err := c.serviceCollection.UserService.CreateStaff(r.Context(), principal, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	contextutils.GetLogger(r.Context(), c.logger).Info("Staff account created", zap.Int64("staff_user_id", account.User.ID))
	c.responseBuilder.WriteCreated(w, r, account)
}

// UpdatePermissions - PUT /api/v1/admin/staff/{userID}/permissions
func (c *UserController) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "userID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.UpdatePermissionsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	profile, err := c.serviceCollection.UserService.UpdateStaffPermissions(r.Context(), principal, id, &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, profile)
}

// SetActive - PATCH /api/v1/admin/users/{userID}/active
func (c *UserController) SetActive(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "userID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.SetActiveRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	if req.IsActive == nil {
		c.responseBuilder.WriteError(w, r, services.NewFieldValidationError(models.ValidationErrors{
			{Field: "is_active", Message: "is required", Code: "required"},
		}))
		return
	}

	user, err := c.serviceCollection.UserService.SetUserActive(r.Context(), principal, id, *req.IsActive)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, user)
}
