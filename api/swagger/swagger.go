package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Assignment Engine API",
        "description": "Assignment resolution and consistency engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Audience", "description": "Task audience resolution"},
        {"name": "Assignments", "description": "Student/teacher assignment mutations"},
        {"name": "Profiles", "description": "Profile cache and reconciliation"},
        {"name": "Imports", "description": "Bulk grade import"},
        {"name": "Exports", "description": "Roster exports"},
        {"name": "Engine", "description": "Snapshot status"}
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
                    "503": {"description": "Store unavailable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and issue a JWT",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current authenticated user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks/{id}/audience": {
            "get": {
                "tags": ["Audience"],
                "summary": "Resolve the audience of a stored task",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Task not found"}
                }
            }
        },
        "/audience/resolve": {
            "post": {
                "tags": ["Audience"],
                "summary": "Resolve an ad hoc audience",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Create a student or teacher assignment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Integrity violation"}
                }
            }
        },
        "/assignments/{id}/section": {
            "put": {
                "tags": ["Assignments"],
                "summary": "Move an assignment to another section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Integrity violation"}
                }
            }
        },
        "/assignments/{id}": {
            "delete": {
                "tags": ["Assignments"],
                "summary": "Delete an assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/profiles/{id}": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Stored vs computed profile for a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/reconcile/preview": {
            "get": {
                "tags": ["Profiles"],
                "summary": "Dry-run the reconciliation pass",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reconcile": {
            "post": {
                "tags": ["Profiles"],
                "summary": "Apply the reconciliation pass",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/imports/grades": {
            "post": {
                "tags": ["Imports"],
                "summary": "Bulk import grade rows",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportGradesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Imports disabled or too many rows"}
                }
            }
        },
        "/imports/failures.csv": {
            "post": {
                "tags": ["Imports"],
                "summary": "Render a sync report's failed keys as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SyncReport"}}
                ],
                "responses": {
                    "200": {"description": "CSV content"}
                }
            }
        },
        "/sections/{courseId}/{sectionId}/roster.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export a section roster as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV content"},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/sections/{courseId}/{sectionId}/roster.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export a section roster as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF content"},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/engine/status": {
            "get": {
                "tags": ["Engine"],
                "summary": "Current snapshot status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/engine/refresh": {
            "post": {
                "tags": ["Engine"],
                "summary": "Rebuild the snapshot now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ResolveRequest": {
            "type": "object",
            "properties": {
                "assigned_to": {"type": "string", "enum": ["course", "student"]},
                "scope_id": {"type": "string"},
                "assigned_student_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["assigned_to"]
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "course_id": {"type": "string"},
                "section_id": {"type": "string"}
            },
            "required": ["course_id", "section_id"]
        },
        "MoveAssignmentRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "section_id": {"type": "string"}
            },
            "required": ["course_id", "section_id"]
        },
        "ImportGradesRequest": {
            "type": "object",
            "properties": {
                "rows": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "additionalProperties": {"type": "string"}
                    }
                }
            },
            "required": ["rows"]
        },
        "SyncReport": {
            "type": "object",
            "properties": {
                "processed": {"type": "integer"},
                "enqueued": {"type": "integer"},
                "succeeded": {"type": "integer"},
                "failed": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed_keys": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            }
        },
        "Audience": {
            "type": "object",
            "properties": {
                "student_ids": {
                    "type": "array",
                    "items": {"type": "string"}
                },
                "diagnostic": {"type": "string", "enum": ["", "SCOPE_NOT_FOUND", "AMBIGUOUS_SCOPE", "LABEL_FALLBACK"]}
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
                "pagination": {"type": "object"},
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
