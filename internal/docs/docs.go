// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register an applicant account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/docs.APIResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/docs.ErrorEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/docs.ErrorEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange credentials for a token pair",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/docs.APIResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/docs.ErrorEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate a refresh token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.RefreshTokenRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid or revoked token"}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke a refresh token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.LogoutRequest"}}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Authentication"],
                "summary": "Current principal",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/applications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "List the caller's applications",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "Start a draft application for a listing",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateApplicationRequest"}}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Already applied", "schema": {"$ref": "#/definitions/docs.ErrorEnvelope"}},
                    "412": {"description": "Listing closed or profile missing", "schema": {"$ref": "#/definitions/docs.ErrorEnvelope"}}
                }
            }
        },
        "/applications/admin": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "Back-office listing with filters",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "type", "in": "query", "enum": ["job", "scholarship"]},
                    {"type": "integer", "name": "listing_id", "in": "query"},
                    {"type": "integer", "name": "applicant_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/applications/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "Application counts by status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/applications/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "Read one application",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "Delete a draft application",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "412": {"description": "Not a draft"}}
            }
        },
        "/applications/{id}/content": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "Merge section data and recompute progress",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.UpdateContentRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "412": {"description": "Application is not editable"}}
            }
        },
        "/applications/{id}/submit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "Submit a complete application",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "412": {"description": "Incomplete or past deadline"}}
            }
        },
        "/applications/{id}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Applications"],
                "summary": "Move an application through the review lifecycle",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.SetStatusRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "412": {"description": "Illegal transition"}}
            }
        },
        "/jobs": {
            "get": {
                "tags": ["Listings"],
                "summary": "List job postings",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "boolean", "name": "mine", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/scholarships": {
            "get": {
                "tags": ["Listings"],
                "summary": "List scholarships",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ads": {
            "get": {
                "tags": ["Advertisements"],
                "summary": "Ads on display; each returned ad counts an impression",
                "parameters": [{"type": "string", "name": "placement", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/documents": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Documents"],
                "summary": "Upload a document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"type": "file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "name": "type", "in": "formData", "required": true},
                    {"type": "integer", "name": "application_id", "in": "formData"}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Rejected file"}}
            }
        },
        "/documents/{id}/download": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Documents"],
                "summary": "Stream a stored document",
                "produces": ["application/octet-stream"],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "File body"}}
            }
        }
    },
    "definitions": {
        "docs.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "request_id": {"type": "string"},
                "timestamp": {"type": "integer"},
                "version": {"type": "string"}
            }
        },
        "docs.ErrorEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {
                    "type": "object",
                    "properties": {
                        "type": {"type": "string"},
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "fields": {"type": "array", "items": {"type": "object"}}
                    }
                },
                "request_id": {"type": "string"}
            }
        },
        "services.RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "first_name", "last_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "services.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "services.RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {"refresh_token": {"type": "string"}}
        },
        "services.LogoutRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {"refresh_token": {"type": "string"}}
        },
        "services.CreateApplicationRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["job", "scholarship"]},
                "job_id": {"type": "integer"},
                "scholarship_id": {"type": "integer"}
            }
        },
        "services.UpdateContentRequest": {
            "type": "object",
            "properties": {
                "application_data": {"type": "object", "additionalProperties": {"type": "object"}},
                "current_step": {"type": "integer"}
            }
        },
        "services.SetStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["draft", "in_progress", "submitted", "under_review", "approved", "rejected", "withdrawn"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the access token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ScholarHub API",
	Description:      "Job and scholarship applications for applicants, staff and administrators.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
