package docs

// Annotations for `swag init`. The functions are never called.

// HealthCheck godoc
// @Summary Health check endpoint
// @Description Dependency health rolled up to healthy, degraded or unhealthy
// @Tags System
// @Produce json
// @Success 200 {object} HealthCheckResponse "Service is taking traffic"
// @Failure 503 {object} HealthCheckResponse "Database unreachable"
// @Router /health [get]
func _() {}

// Register godoc
// @Summary Register an applicant account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body services.RegisterRequest true "Registration details"
// @Success 201 {object} APIResponse
// @Failure 400 {object} ErrorEnvelope "Validation error"
// @Failure 409 {object} ErrorEnvelope "Email already registered"
// @Router /auth/register [post]
func _() {}

// Login godoc
// @Summary Exchange credentials for a token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body services.LoginRequest true "Credentials"
// @Success 200 {object} APIResponse
// @Failure 401 {object} ErrorEnvelope "Invalid credentials or inactive account"
// @Router /auth/login [post]
func _() {}

// CreateApplication godoc
// @Summary Start a draft application for a listing
// @Security BearerAuth
// @Tags Applications
// @Accept json
// @Produce json
// @Param body body services.CreateApplicationRequest true "Target listing"
// @Success 201 {object} APIResponse
// @Failure 409 {object} ErrorEnvelope "Already applied"
// @Failure 412 {object} ErrorEnvelope "Listing closed or profile missing"
// @Router /applications [post]
func _() {}

// UpdateApplicationContent godoc
// @Summary Merge section data and recompute progress
// @Security BearerAuth
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param body body services.UpdateContentRequest true "Sections to merge"
// @Success 200 {object} APIResponse
// @Failure 412 {object} ErrorEnvelope "Application is not editable"
// @Router /applications/{id}/content [patch]
func _() {}

// SubmitApplication godoc
// @Summary Submit a complete application
// @Security BearerAuth
// @Tags Applications
// @Produce json
// @Param id path int true "Application ID"
// @Success 200 {object} APIResponse
// @Failure 412 {object} ErrorEnvelope "Incomplete or past deadline"
// @Router /applications/{id}/submit [post]
func _() {}

// SetApplicationStatus godoc
// @Summary Move an application through the review lifecycle
// @Security BearerAuth
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param body body services.SetStatusRequest true "Target status"
// @Success 200 {object} APIResponse
// @Failure 403 {object} ErrorEnvelope "Missing can_update_status"
// @Failure 412 {object} ErrorEnvelope "Illegal transition"
// @Router /applications/{id}/status [put]
func _() {}

// ListJobs godoc
// @Summary List job postings
// @Tags Listings
// @Produce json
// @Param status query string false "draft, upcoming, active or closed"
// @Param search query string false "Title search"
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page"
// @Success 200 {object} APIResponse
// @Router /jobs [get]
func _() {}

// UploadDocument godoc
// @Summary Upload a document
// @Security BearerAuth
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF, image or office document"
// @Param type formData string true "Document type"
// @Param application_id formData int false "Owning application"
// @Success 201 {object} APIResponse
// @Failure 400 {object} ErrorEnvelope "Rejected file"
// @Router /documents [post]
func _() {}
