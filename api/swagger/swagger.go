package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Fees Queue Management API",
        "description": "Queue-based fee payment service for college counters",
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
        {"name": "Authentication", "description": "Login and account registration"},
        {"name": "Students", "description": "Student dashboard and queue entry"},
        {"name": "Queue", "description": "Counter queues, skip and remove"},
        {"name": "Payments", "description": "Payment completion and receipts"},
        {"name": "Counters", "description": "Counter and fee-type administration"}
    ],
    "paths": {
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
        "/auth/register/student": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register student account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email or roll number taken"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/dashboard": {
            "get": {
                "tags": ["Students"],
                "summary": "Student dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/payments": {
            "post": {
                "tags": ["Students"],
                "summary": "Join a payment queue",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnqueueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Student already queued at this counter"}
                }
            }
        },
        "/student/payments/queue": {
            "get": {
                "tags": ["Students"],
                "summary": "Student queue entries",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/payments/process": {
            "post": {
                "tags": ["Payments"],
                "summary": "Process payment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProcessRequest"}}
                ],
                "responses": {
                    "200": {"description": "Receipt", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Entry not in a transitionable state"}
                }
            }
        },
        "/payments/{id}/receipt": {
            "get": {
                "tags": ["Payments"],
                "summary": "Payment receipt",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Payment not found"}
                }
            }
        },
        "/payments/{id}/receipt.pdf": {
            "get": {
                "tags": ["Payments"],
                "summary": "Payment receipt PDF",
                "produces": ["application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/queue/counter/{id}": {
            "get": {
                "tags": ["Queue"],
                "summary": "Counter queue",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/queue/stats/{id}": {
            "get": {
                "tags": ["Queue"],
                "summary": "Counter statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/queue/skip": {
            "post": {
                "tags": ["Queue"],
                "summary": "Skip queue entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SkipRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Entry not in a transitionable state"}
                }
            }
        },
        "/queue/remove": {
            "post": {
                "tags": ["Queue"],
                "summary": "Remove queue entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RemoveRequest"}}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "409": {"description": "Entry not in a transitionable state"}
                }
            }
        },
        "/counters": {
            "get": {
                "tags": ["Counters"],
                "summary": "List counters",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Counters"],
                "summary": "Create counter",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCounterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/counters/{id}": {
            "get": {
                "tags": ["Counters"],
                "summary": "Counter detail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/counters/{id}/active": {
            "patch": {
                "tags": ["Counters"],
                "summary": "Open or close counter",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"active": {"type": "boolean"}}}}
                ],
                "responses": {
                    "204": {"description": "Updated"}
                }
            }
        },
        "/counters/{id}/accountant": {
            "patch": {
                "tags": ["Counters"],
                "summary": "Assign accountant to counter",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"accountant_id": {"type": "string"}}}}
                ],
                "responses": {
                    "204": {"description": "Updated"}
                }
            }
        },
        "/fee-types": {
            "get": {
                "tags": ["Counters"],
                "summary": "List fee types",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/accountants/me": {
            "get": {
                "tags": ["Counters"],
                "summary": "Current accountant profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["identifier", "password"],
            "properties": {
                "identifier": {"type": "string", "description": "Email or roll number"},
                "password": {"type": "string"}
            }
        },
        "RegisterStudentRequest": {
            "type": "object",
            "required": ["full_name", "email", "roll_number", "password"],
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "roll_number": {"type": "string"},
                "password": {"type": "string"},
                "branch": {"type": "string"},
                "year": {"type": "integer"},
                "phone_number": {"type": "string"}
            }
        },
        "EnqueueRequest": {
            "type": "object",
            "required": ["counter_id", "fee_type_id", "amount"],
            "properties": {
                "counter_id": {"type": "string"},
                "fee_type_id": {"type": "string"},
                "amount": {"type": "number"},
                "description": {"type": "string"}
            }
        },
        "ProcessRequest": {
            "type": "object",
            "required": ["queue_id"],
            "properties": {
                "queue_id": {"type": "string"}
            }
        },
        "SkipRequest": {
            "type": "object",
            "required": ["queue_id", "counter_id"],
            "properties": {
                "queue_id": {"type": "string"},
                "counter_id": {"type": "string"}
            }
        },
        "RemoveRequest": {
            "type": "object",
            "required": ["queue_id", "counter_id", "reason"],
            "properties": {
                "queue_id": {"type": "string"},
                "counter_id": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "CreateCounterRequest": {
            "type": "object",
            "required": ["counter_number", "counter_name"],
            "properties": {
                "counter_number": {"type": "integer"},
                "counter_name": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
