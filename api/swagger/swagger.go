package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Enrol API",
        "description": "Gated self-enrolment service with certificate rendering",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Token issuance and session management"},
        {"name": "Enrolment", "description": "Self-enrolment workflow"},
        {"name": "Instances", "description": "Enrol instance administration"},
        {"name": "Certificates", "description": "Certificate rendering"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrol/{id}/eligibility": {
            "get": {
                "tags": ["Enrolment"],
                "summary": "Check enrolment eligibility",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Instance not found"}
                }
            }
        },
        "/enrol/{id}": {
            "post": {
                "tags": ["Enrolment"],
                "summary": "Self-enrol into a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelfEnrolRequest"}}
                ],
                "responses": {
                    "200": {"description": "Blocked or already enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Instance not found"}
                }
            }
        },
        "/courses/{courseId}/enrolments": {
            "get": {
                "tags": ["Enrolment"],
                "summary": "List enrolment records for a course",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Missing capability"}
                }
            }
        },
        "/instances": {
            "get": {
                "tags": ["Instances"],
                "summary": "List enrol instances",
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort_by", "in": "query", "type": "string"},
                    {"name": "sort_order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Instances"],
                "summary": "Create enrol instance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInstanceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Missing capability"}
                }
            }
        },
        "/instances/{id}": {
            "get": {
                "tags": ["Instances"],
                "summary": "Get enrol instance",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Instances"],
                "summary": "Update enrol instance",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateInstanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Missing capability"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Instances"],
                "summary": "Delete enrol instance",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Missing capability"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/certificates/{id}/values": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Resolve certificate element values",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Issue not found"}
                }
            }
        },
        "/certificates/{id}/pdf": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download certificate PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "404": {"description": "Issue not found"}
                }
            }
        }
    },
    "definitions": {
        "EnrolInstance": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course_id": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string", "enum": ["ENABLED", "DISABLED"]},
                "role_id": {"type": "string"},
                "enrol_period": {"type": "integer"},
                "accepting_new": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "EnrolmentOutcome": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["ENROLLED", "ALREADY_ENROLLED", "BLOCKED", "REJECTED"]},
                "reason": {"type": "string"},
                "record": {"$ref": "#/definitions/EnrolRecord"},
                "group": {"$ref": "#/definitions/GroupAssignment"}
            }
        },
        "EnrolRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course_id": {"type": "string"},
                "user_id": {"type": "string"},
                "display_name": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "GroupAssignment": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["ASSIGNED", "NO_GROUPS", "FAILED"]},
                "group_id": {"type": "string"}
            }
        },
        "SelfEnrolRequest": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string"}
            }
        },
        "CreateInstanceRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "name": {"type": "string"},
                "role_id": {"type": "string"},
                "status": {"type": "string"},
                "enrol_period": {"type": "integer"},
                "accepting_new": {"type": "boolean"}
            },
            "required": ["course_id", "name"]
        },
        "UpdateInstanceRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "role_id": {"type": "string"},
                "status": {"type": "string"},
                "enrol_period": {"type": "integer"},
                "accepting_new": {"type": "boolean"}
            },
            "required": ["name", "role_id", "status"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
