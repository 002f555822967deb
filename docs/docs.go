// Package docs is generated by swaggo/swag from the annotations in cmd/api and
// internal/http/handler. Regenerate with: swag init -g cmd/api/main.go
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
        "/health": {
            "get": {
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/required-documents": {
            "get": {
                "security": [{"BearerAuth": []}],
                "summary": "List required document types",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RequiredDocumentType"}}}
                }
            }
        },
        "/requests": {
            "get": {
                "security": [{"BearerAuth": []}],
                "summary": "List registration requests",
                "parameters": [
                    {"type": "string", "description": "status filter", "name": "status", "in": "query"},
                    {"type": "integer", "default": 10, "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "description": "page offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.RegistrationListResult"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "summary": "Submit a registration request",
                "parameters": [
                    {"description": "request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.SubmitInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.RegistrationRequest"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/requests/{id}/documents/{type}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "summary": "Attach a document to a request",
                "parameters": [
                    {"type": "string", "description": "request id", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "document type", "name": "type", "in": "path", "required": true},
                    {"type": "file", "description": "document file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.AttachResult"}}
                }
            }
        },
        "/requests/{id}/review": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "summary": "Review a registration request",
                "parameters": [
                    {"type": "string", "description": "request id", "name": "id", "in": "path", "required": true},
                    {"description": "decision", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.reviewBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RegistrationRequest"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/requests/{id}/credential": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "summary": "Generate a credential",
                "parameters": [
                    {"type": "string", "description": "request id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/requests/{id}/collection": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "summary": "Record credential collection",
                "parameters": [
                    {"type": "string", "description": "request id", "name": "id", "in": "path", "required": true},
                    {"description": "collector", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.collectionBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RegistrationRequest"}}
                }
            }
        },
        "/credentials/generate-batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "summary": "Generate credentials in batch",
                "parameters": [
                    {"description": "request ids", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.batchBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.BatchResult"}},
                    "207": {"description": "Multi-Status", "schema": {"$ref": "#/definitions/model.BatchResult"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/model.BatchResult"}}
                }
            }
        },
        "/credentials/print-batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "summary": "Print credentials in batch",
                "parameters": [
                    {"description": "request ids", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.batchBody"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.BatchResult"}},
                    "207": {"description": "Multi-Status", "schema": {"$ref": "#/definitions/model.BatchResult"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/model.BatchResult"}}
                }
            }
        }
    },
    "definitions": {
        "handler.batchBody": {
            "type": "object",
            "properties": {"request_ids": {"type": "array", "items": {"type": "string"}}}
        },
        "handler.collectionBody": {
            "type": "object",
            "properties": {"collector_name": {"type": "string"}}
        },
        "handler.reviewBody": {
            "type": "object",
            "properties": {
                "decision": {"type": "string"},
                "reason": {"type": "string"},
                "flagged_documents": {"type": "array", "items": {"type": "string"}},
                "observed_status": {"type": "string"}
            }
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "current_status": {"type": "string"},
                "requested_status": {"type": "string"},
                "missing_documents": {"type": "array", "items": {"type": "string"}},
                "artifact_delivered": {"type": "boolean"},
                "artifact_url": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "error": {"$ref": "#/definitions/handler.errorEnvelope"}
            }
        },
        "model.DocumentRef": {
            "type": "object",
            "properties": {"url": {"type": "string"}, "uploaded_at": {"type": "string"}}
        },
        "model.RequiredDocumentType": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "required": {"type": "boolean"}, "instructions": {"type": "string"}}
        },
        "model.RegistrationRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "company_id": {"type": "string"},
                "employee_id": {"type": "string"},
                "full_name": {"type": "string"},
                "national_id": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "approved", "rejected", "id_generated", "id_printed", "id_collected"]},
                "documents": {"type": "object", "additionalProperties": {"$ref": "#/definitions/model.DocumentRef"}},
                "flagged_documents": {"type": "array", "items": {"type": "string"}},
                "submission_date": {"type": "string"},
                "review_date": {"type": "string"},
                "reviewer_id": {"type": "string"},
                "rejection_reason": {"type": "string"},
                "printed": {"type": "boolean"},
                "printed_at": {"type": "string"},
                "generated_at": {"type": "string"},
                "collected_at": {"type": "string"},
                "collector_name": {"type": "string"}
            }
        },
        "model.BatchItem": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "outcome": {"type": "string", "enum": ["success", "failure"]},
                "error": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}}}
            }
        },
        "model.BatchResult": {
            "type": "object",
            "properties": {
                "batch_id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/model.BatchItem"}},
                "artifact_key": {"type": "string"},
                "artifact_url": {"type": "string"}
            }
        },
        "service.SubmitInput": {
            "type": "object",
            "properties": {
                "employee_id": {"type": "string"},
                "full_name": {"type": "string"},
                "national_id": {"type": "string"},
                "company_id": {"type": "string"}
            }
        },
        "service.RegistrationListResult": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/model.RegistrationRequest"}},
                "total": {"type": "integer"}
            }
        },
        "service.AttachResult": {
            "type": "object",
            "properties": {
                "request": {"$ref": "#/definitions/model.RegistrationRequest"},
                "missing_documents": {"type": "array", "items": {"type": "string"}},
                "reopened": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Registration Portal API",
	Description:      "Employee registration review and identity credential issuance.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
