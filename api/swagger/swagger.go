package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "C-SHAW Hub API",
        "description": "Volunteer hours and attendance platform for the C-SHAW programme",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login, registration and identity"},
        {"name": "Activities", "description": "Volunteer activity catalogue and RSVPs"},
        {"name": "Attendance", "description": "Sign-in/sign-out lifecycle"},
        {"name": "Stats", "description": "Student hours and roster"},
        {"name": "Reports", "description": "Event and quarterly attendance reports"}
    ],
    "paths": {
        "/auth/login/": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/register/": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email already used", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/activities/": {
            "get": {
                "tags": ["Activities"],
                "summary": "List activities",
                "parameters": [
                    {"name": "campus", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Activities"],
                "summary": "Create activity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateActivityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Coordinators only", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/activities/{id}/": {
            "get": {
                "tags": ["Activities"],
                "summary": "Get activity",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "patch": {
                "tags": ["Activities"],
                "summary": "Update activity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Activities"],
                "summary": "Delete activity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/activities/{id}/signup/": {
            "post": {
                "tags": ["Activities"],
                "summary": "RSVP to activity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Signed up"},
                    "409": {"description": "Already signed up or fully booked", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "delete": {
                "tags": ["Activities"],
                "summary": "Cancel RSVP",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Cancelled"}
                }
            }
        },
        "/activities/{id}/rsvps/": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/attendance/{id}/": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Sign a student in or out",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Rejected transition", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/activities/{id}/bulk_signout/": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Sign out all remaining students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "No students signed in", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/stats/me/": {
            "get": {
                "tags": ["Stats"],
                "summary": "Current student's stats",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/stats/roster/": {
            "get": {
                "tags": ["Stats"],
                "summary": "Student roster",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/stats/milestones/": {
            "get": {
                "tags": ["Stats"],
                "summary": "Milestone qualifiers",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/events/{id}/": {
            "get": {
                "tags": ["Reports"],
                "summary": "Event attendance report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/events/{id}/export/": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export event attendance",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/reports/quarterly/": {
            "get": {
                "tags": ["Reports"],
                "summary": "Quarterly report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/reports/quarterly/export/": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export the quarterly report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        }
    },
    "definitions": {
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "first_name", "last_name", "campus"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "student_number": {"type": "string"},
                "campus": {"type": "string", "enum": ["APB", "DFC", "APK", "SWC"]},
                "admin_code": {"type": "string"}
            }
        },
        "CreateActivityRequest": {
            "type": "object",
            "required": ["title", "campus", "description", "details", "total_spots", "start_time"],
            "properties": {
                "title": {"type": "string"},
                "campus": {"type": "string"},
                "description": {"type": "string"},
                "details": {"type": "string"},
                "additional_details": {"type": "string"},
                "total_spots": {"type": "integer"},
                "start_time": {"type": "string", "format": "date-time"},
                "duration_hours": {"type": "number"},
                "image_url": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SignupRequest": {
            "type": "object",
            "properties": {
                "selected_role": {"type": "string"}
            }
        },
        "TransitionRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string", "enum": ["signin", "signout"]},
                "manual_time": {"type": "string", "example": "14:30"}
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
