// Package docs holds the swagger document served at /swagger.
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
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}}
                }
            }
        },
        "/api/v1/webhooks/fal": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "fal.ai webhook endpoint",
                "parameters": [
                    {"type": "string", "name": "X-Fal-Webhook-Request-Id", "in": "header", "required": true},
                    {"type": "string", "name": "X-Fal-Webhook-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "X-Fal-Webhook-Timestamp", "in": "header", "required": true},
                    {"type": "string", "name": "X-Fal-Webhook-Signature", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.WebhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/webhooks/processing": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Media processing callback",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProcessingWebhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "message": {"type": "string"}}
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "models.WebhookResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "generation_id": {"type": "string"},
                "status": {"type": "string"},
                "error_type": {"type": "string"},
                "error_code": {"type": "integer"}
            }
        },
        "models.ProcessingWebhookResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "generation_id": {"type": "string"},
                "processing_id": {"type": "string"},
                "processing_type": {"type": "string"},
                "status": {"type": "string"},
                "message": {"type": "string"},
                "urls_received": {"type": "object", "additionalProperties": {"type": "boolean"}}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GenMedia Backend API",
	Description:      "Webhook ingestion for AI media generations: verifies provider deliveries, stores outputs permanently and dispatches video post-processing.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
