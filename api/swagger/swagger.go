package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Planner API",
        "description": "Weekly timetable scheduling with room and teacher recommendations",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Catalog", "description": "Rooms, teachers and curriculum"},
        {"name": "Recommendations", "description": "Room and teacher candidates for a course"},
        {"name": "Timetable", "description": "Weekly grid, scheduling and exports"},
        {"name": "Imports", "description": "Teacher and student CSV uploads"},
        {"name": "Dashboard", "description": "Student indicators and success estimate"},
        {"name": "Realtime", "description": "Websocket event feed"}
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
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/catalog/rooms": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/catalog/teachers": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List teachers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/catalog/programs": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List programs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/catalog/programs/{program}/levels/{level}/subjects": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List subjects for a program level",
                "parameters": [
                    {"name": "program", "in": "path", "required": true, "type": "string"},
                    {"name": "level", "in": "path", "required": true, "type": "integer", "minimum": 1, "maximum": 5}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid level", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/recommendations": {
            "post": {
                "tags": ["Recommendations"],
                "summary": "Recommend rooms and teachers",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly grid",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/entries": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Schedule a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot occupied or insufficient teacher hours", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unknown teacher, unknown room or room too small", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetable/exports": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Export the grid",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exports/{token}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download an export",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Unknown link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Link expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/imports/teachers": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import teachers",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "async", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No valid rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/imports/students": {
            "post": {
                "tags": ["Imports"],
                "summary": "Import students",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "async", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No valid rows", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/imports/{id}": {
            "get": {
                "tags": ["Imports"],
                "summary": "Import job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Student indicators",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/predictions": {
            "post": {
                "tags": ["Dashboard"],
                "summary": "Estimate success",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PredictionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/ws": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Event feed (websocket upgrade)",
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "403": {"description": "Origin not allowed"}
                }
            }
        }
    },
    "definitions": {
        "CourseRequest": {
            "type": "object",
            "required": ["program", "level", "subject", "session_type", "headcount"],
            "properties": {
                "program": {"type": "string"},
                "level": {"type": "integer", "minimum": 1, "maximum": 5},
                "subject": {"type": "string"},
                "session_type": {"type": "string", "enum": ["CM", "TD", "TP"]},
                "headcount": {"type": "integer", "minimum": 1},
                "date": {"type": "string", "format": "date"}
            }
        },
        "ScheduleRequest": {
            "type": "object",
            "required": ["program", "level", "subject", "session_type", "headcount", "day", "period"],
            "properties": {
                "program": {"type": "string"},
                "level": {"type": "integer", "minimum": 1, "maximum": 5},
                "subject": {"type": "string"},
                "session_type": {"type": "string", "enum": ["CM", "TD", "TP"]},
                "headcount": {"type": "integer", "minimum": 1},
                "date": {"type": "string", "format": "date"},
                "day": {"type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"]},
                "period": {"type": "string", "enum": ["AM", "PM"]},
                "teacher_id": {"type": "integer"},
                "room_id": {"type": "integer"},
                "duration_hours": {"type": "number"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "PredictionRequest": {
            "type": "object",
            "properties": {
                "attendance": {"type": "number"},
                "study_hours": {"type": "number"},
                "participation": {"type": "number"},
                "previous_average": {"type": "number"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
