// Package docs registra la documentación OpenAPI de la API de admin
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
                "tags": [
                    "health"
                ],
                "summary": "Basic health check",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.HealthResponse"
                        }
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "health"
                ],
                "summary": "Complete readiness check",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Service is not ready",
                        "schema": {
                            "$ref": "#/definitions/dto.HealthResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/listings": {
            "get": {
                "tags": [
                    "listings"
                ],
                "summary": "List managed listings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListingsResponse"
                        }
                    }
                },
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "listings"
                ],
                "summary": "Add a listing",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListingData"
                        }
                    },
                    "400": {
                        "description": "Invalid catalog key, currency or bounds",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Listing already exists",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "description": "Listing to add",
                        "name": "listing",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.AddListingRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/listings/{id}": {
            "get": {
                "tags": [
                    "listings"
                ],
                "summary": "Get a listing",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListingData"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Listing ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "listings"
                ],
                "summary": "Stop managing a listing",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.MessageResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Listing ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/listings/{id}/toggle": {
            "post": {
                "tags": [
                    "listings"
                ],
                "summary": "Enable or disable a listing",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListingData"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Listing ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/listings/{id}/bounds": {
            "put": {
                "tags": [
                    "listings"
                ],
                "summary": "Change listing price bounds",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.ListingData"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Listing ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "New bounds",
                        "name": "bounds",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateBoundsRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/listings/{id}/reprice": {
            "post": {
                "tags": [
                    "reprice"
                ],
                "summary": "Reprice one listing now",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/entities.RepriceResult"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Listing disabled",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "type": "string",
                        "description": "Listing ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/reprice": {
            "post": {
                "tags": [
                    "reprice"
                ],
                "summary": "Reprice every enabled listing",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/entities.RepriceSummary"
                        }
                    }
                },
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/settings": {
            "get": {
                "tags": [
                    "settings"
                ],
                "summary": "Current global settings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SettingsData"
                        }
                    }
                },
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "settings"
                ],
                "summary": "Update global settings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SettingsData"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "description": "Fields to change",
                        "name": "settings",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateSettingsRequest"
                        }
                    }
                ],
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/settings/reset": {
            "post": {
                "tags": [
                    "settings"
                ],
                "summary": "Restore configured default settings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.SettingsData"
                        }
                    }
                },
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/rates": {
            "get": {
                "tags": [
                    "rates"
                ],
                "summary": "Exchange rate snapshot",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.RatesResponse"
                        }
                    }
                },
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/rates/refresh": {
            "post": {
                "tags": [
                    "rates"
                ],
                "summary": "Refresh every supported rate",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.RefreshRatesResponse"
                        }
                    }
                },
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/status": {
            "get": {
                "tags": [
                    "status"
                ],
                "summary": "Scheduler and cache status",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.StatusResponse"
                        }
                    }
                },
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/api/v1/events": {
            "get": {
                "tags": [
                    "events"
                ],
                "summary": "WebSocket stream of reprice results",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "101": {
                        "description": "Switching Protocols"
                    }
                },
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "dto.AddListingRequest": {
            "type": "object",
            "required": [
                "id",
                "catalog_item",
                "catalog_currency",
                "min_price",
                "max_price"
            ],
            "properties": {
                "id": {
                    "type": "string",
                    "example": "lot-1001"
                },
                "catalog_item": {
                    "type": "string",
                    "example": "570"
                },
                "catalog_currency": {
                    "type": "string",
                    "example": "UAH"
                },
                "min_price": {
                    "type": "number",
                    "example": 1.5
                },
                "max_price": {
                    "type": "number",
                    "example": 25
                }
            }
        },
        "dto.UpdateBoundsRequest": {
            "type": "object",
            "properties": {
                "min_price": {
                    "type": "number"
                },
                "max_price": {
                    "type": "number"
                }
            }
        },
        "dto.UpdateSettingsRequest": {
            "type": "object",
            "properties": {
                "account_currency": {
                    "type": "string"
                },
                "recheck_interval": {
                    "type": "string",
                    "example": "6h"
                },
                "markup_currency_pct": {
                    "type": "number"
                },
                "markup_margin_pct": {
                    "type": "number"
                },
                "markup_fixed_amount": {
                    "type": "number"
                },
                "global_min_price": {
                    "type": "number"
                },
                "global_max_price": {
                    "type": "number"
                }
            }
        },
        "dto.ListingData": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "catalog_item": {
                    "type": "string"
                },
                "catalog_currency": {
                    "type": "string"
                },
                "display_name": {
                    "type": "string"
                },
                "min_price": {
                    "type": "number"
                },
                "max_price": {
                    "type": "number"
                },
                "enabled": {
                    "type": "boolean"
                },
                "last_known_catalog_price": {
                    "type": "number",
                    "x-nullable": true
                },
                "last_applied_price": {
                    "type": "number",
                    "x-nullable": true
                },
                "last_update_time": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                }
            }
        },
        "dto.ListingsResponse": {
            "type": "object",
            "properties": {
                "listings": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.ListingData"
                    }
                },
                "stats": {
                    "$ref": "#/definitions/entities.ListingStats"
                }
            }
        },
        "entities.ListingStats": {
            "type": "object",
            "properties": {
                "total": {
                    "type": "integer"
                },
                "active": {
                    "type": "integer"
                },
                "with_prices": {
                    "type": "integer"
                }
            }
        },
        "dto.SettingsData": {
            "type": "object",
            "properties": {
                "account_currency": {
                    "type": "string"
                },
                "recheck_interval": {
                    "type": "string"
                },
                "markup_currency_pct": {
                    "type": "number"
                },
                "markup_margin_pct": {
                    "type": "number"
                },
                "markup_fixed_amount": {
                    "type": "number"
                },
                "global_min_price": {
                    "type": "number"
                },
                "global_max_price": {
                    "type": "number"
                }
            }
        },
        "entities.ExchangeRate": {
            "type": "object",
            "properties": {
                "currency": {
                    "type": "string"
                },
                "rate": {
                    "type": "number"
                },
                "timestamp": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "source": {
                    "type": "string"
                }
            }
        },
        "dto.RatesResponse": {
            "type": "object",
            "properties": {
                "base_currency": {
                    "type": "string"
                },
                "rates": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/entities.ExchangeRate"
                    }
                }
            }
        },
        "dto.RefreshRatesResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                },
                "rates": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "number"
                    }
                }
            }
        },
        "entities.RepriceResult": {
            "type": "object",
            "properties": {
                "listing_id": {
                    "type": "string"
                },
                "catalog_item": {
                    "type": "string"
                },
                "outcome": {
                    "type": "string",
                    "enum": [
                        "updated",
                        "unchanged",
                        "catalog_unavailable",
                        "calculation_failed",
                        "listing_removed",
                        "write_failed",
                        "skipped"
                    ]
                },
                "reason": {
                    "type": "string"
                },
                "catalog_price": {
                    "type": "number"
                },
                "calculated_price": {
                    "type": "number"
                },
                "old_price": {
                    "type": "number"
                },
                "new_price": {
                    "type": "number"
                },
                "currency": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string"
                }
            }
        },
        "entities.RepriceSummary": {
            "type": "object",
            "properties": {
                "total": {
                    "type": "integer"
                },
                "updated": {
                    "type": "integer"
                },
                "failed": {
                    "type": "integer"
                },
                "results": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/entities.RepriceResult"
                    }
                }
            }
        },
        "dto.StatusResponse": {
            "type": "object",
            "properties": {
                "scheduler": {
                    "type": "object"
                },
                "caches": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "websocket_clients": {
                    "type": "integer"
                },
                "rate_limit": {
                    "type": "object"
                },
                "timestamp": {
                    "type": "string"
                }
            }
        },
        "dto.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                }
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "code": {
                    "type": "string"
                }
            }
        },
        "dto.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string"
                },
                "services": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Listing Repricer Admin API",
	Description:      "Manages marketplace listings whose prices follow a regional catalog price.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
