// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler annotations.
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
        "/wallet": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Wallet"],
                "summary": "Get wallet",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"account": {"$ref": "#/definitions/handlers.WalletAccount"}}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/wallet/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Wallet"],
                "summary": "List wallet transactions",
                "parameters": [
                    {"type": "integer", "description": "Page size (1-100, default 20)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "nextCursor from the previous page", "name": "cursor", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.EntryPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/wallet/fund": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Wallet"],
                "summary": "Fund wallet",
                "parameters": [
                    {"type": "string", "description": "Deduplication key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Funding request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.FundRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "properties": {"success": {"type": "boolean"}, "amountGLM": {"type": "integer"}, "newBalance": {"type": "integer"}, "ledgerEntry": {"$ref": "#/definitions/models.LedgerEntry"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/wallet/repayments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Wallet"],
                "summary": "Create repayment",
                "parameters": [
                    {"type": "string", "description": "Deduplication key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Repayment request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RepaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.EntriesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/wallet/transfer": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Wallet"],
                "summary": "Admin transfer",
                "parameters": [
                    {"type": "string", "description": "Deduplication key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Transfer request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.TransferRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.EntriesResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/accounts/{accountId}/verify": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Accounts"],
                "summary": "Verify account balance",
                "parameters": [{"type": "string", "description": "Account ID", "name": "accountId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.BalanceCheck"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/posts/{postId}/pledges": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Pledges"],
                "summary": "List pledges",
                "parameters": [{"type": "string", "description": "Post ID", "name": "postId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/models.Pledge"}}, "nextCursor": {"type": "string"}}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Pledges"],
                "summary": "Create pledge",
                "parameters": [
                    {"type": "string", "description": "Post ID", "name": "postId", "in": "path", "required": true},
                    {"type": "string", "description": "Deduplication key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Pledge request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreatePledgeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "properties": {"pledge": {"$ref": "#/definitions/models.Pledge"}, "transfer": {"$ref": "#/definitions/models.TransferResult"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/posts/{postId}/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Pledges"],
                "summary": "Post funding stats",
                "parameters": [{"type": "string", "description": "Post ID", "name": "postId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PostStats"}}}
            }
        },
        "/posts/{postId}/qr": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["QR"],
                "summary": "Generate donation QR code",
                "parameters": [
                    {"type": "string", "description": "Post ID", "name": "postId", "in": "path", "required": true},
                    {"description": "QR generation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.GenerateQRRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "properties": {"token": {"type": "string"}, "qrImage": {"type": "string"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        },
        "/qr/redeem": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["QR"],
                "summary": "Redeem donation QR code",
                "parameters": [
                    {"type": "string", "description": "Deduplication key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "QR redemption request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RedeemQRRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "properties": {"pledge": {"$ref": "#/definitions/models.Pledge"}, "transfer": {"$ref": "#/definitions/models.TransferResult"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/services.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.WalletAccount": {"type": "object", "properties": {"id": {"type": "string"}, "ownerType": {"type": "string"}, "ownerId": {"type": "string"}, "balanceGLM": {"type": "integer"}}},
        "handlers.FundRequest": {"type": "object", "required": ["amountGLM"], "properties": {"amountGLM": {"type": "integer", "minimum": 1}, "note": {"type": "string", "maxLength": 500}}},
        "handlers.RepaymentRequest": {"type": "object", "required": ["toUserId", "amountGLM", "note"], "properties": {"toUserId": {"type": "string"}, "amountGLM": {"type": "integer", "minimum": 1}, "note": {"type": "string", "maxLength": 500}}},
        "handlers.TransferRequest": {"type": "object", "required": ["fromAccountId", "toAccountId", "amountGLM", "note"], "properties": {"fromAccountId": {"type": "string"}, "toAccountId": {"type": "string"}, "amountGLM": {"type": "integer", "minimum": 1}, "note": {"type": "string", "maxLength": 500}}},
        "handlers.CreatePledgeRequest": {"type": "object", "required": ["type", "amountGLM"], "properties": {"type": {"type": "string", "enum": ["donation", "contract"]}, "amountGLM": {"type": "integer", "minimum": 1}, "termsId": {"type": "string"}, "note": {"type": "string", "maxLength": 500}}},
        "handlers.GenerateQRRequest": {"type": "object", "required": ["amountGLM"], "properties": {"amountGLM": {"type": "integer", "minimum": 1}}},
        "handlers.RedeemQRRequest": {"type": "object", "required": ["token"], "properties": {"token": {"type": "string"}}},
        "handlers.EntriesResponse": {"type": "object", "properties": {"refId": {"type": "string"}, "entries": {"type": "array", "items": {"$ref": "#/definitions/models.LedgerEntry"}}}},
        "models.LedgerEntry": {"type": "object", "properties": {"id": {"type": "string"}, "accountId": {"type": "string"}, "direction": {"type": "string", "enum": ["credit", "debit"]}, "amountGLM": {"type": "integer"}, "refType": {"type": "string", "enum": ["pledge", "transfer", "repayment"]}, "refId": {"type": "string"}, "createdAt": {"type": "string"}}},
        "models.EntryPage": {"type": "object", "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/models.LedgerEntry"}}, "nextCursor": {"type": "string"}}},
        "models.TransferResult": {"type": "object", "properties": {"debitEntryId": {"type": "string"}, "creditEntryId": {"type": "string"}}},
        "models.BalanceCheck": {"type": "object", "properties": {"accountId": {"type": "string"}, "cachedBalance": {"type": "integer"}, "computedBalance": {"type": "integer"}, "consistent": {"type": "boolean"}}},
        "models.Pledge": {"type": "object", "properties": {"id": {"type": "string"}, "postId": {"type": "string"}, "pledgerId": {"type": "string"}, "type": {"type": "string"}, "amountGLM": {"type": "integer"}, "termsId": {"type": "string"}, "note": {"type": "string"}, "createdAt": {"type": "string"}}},
        "models.PostStats": {"type": "object", "properties": {"fundedGLM": {"type": "integer"}, "donors": {"type": "integer"}, "sponsors": {"type": "integer"}}},
        "services.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "string"}, "details": {"type": "object", "additionalProperties": true}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "GoLoanMe GLM Ledger API",
	Description:      "Wallet, pledge and repayment API over the GLM double-entry ledger",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
