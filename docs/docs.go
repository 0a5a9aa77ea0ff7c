// Package docs は swagger 定義。ハンドラの godoc を変えたら swag init で作り直す
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
		"/login": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "ログイン（JWT 発行）",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/books": {
			"get": {
				"tags": [
					"books"
				],
				"summary": "蔵書一覧",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/books/{book_id}": {
			"get": {
				"tags": [
					"books"
				],
				"summary": "蔵書詳細",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"404": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "book_id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/me/issues": {
			"get": {
				"tags": [
					"issues"
				],
				"summary": "自分の貸出一覧",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/me/fines": {
			"get": {
				"tags": [
					"fines"
				],
				"summary": "自分の罰金一覧",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/me/fines/{fine_id}": {
			"get": {
				"tags": [
					"fines"
				],
				"summary": "自分の罰金詳細",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"404": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "fine_id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/issues/{issue_id}/fine-preview": {
			"get": {
				"tags": [
					"issues"
				],
				"summary": "現時点の罰金見込み（保存しない）",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"404": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "issue_id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/requests": {
			"post": {
				"tags": [
					"requests"
				],
				"summary": "取り寄せ・予約の申請",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/me/requests": {
			"get": {
				"tags": [
					"requests"
				],
				"summary": "自分の申請一覧",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/requests/{request_id}/cancel": {
			"post": {
				"tags": [
					"requests"
				],
				"summary": "申請の取り消し",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "request_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/me/notifications": {
			"get": {
				"tags": [
					"notifications"
				],
				"summary": "通知一覧",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/notifications/{notification_id}/read": {
			"post": {
				"tags": [
					"notifications"
				],
				"summary": "既読にする",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "notification_id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/ws": {
			"get": {
				"tags": [
					"notifications"
				],
				"summary": "通知の websocket",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/books": {
			"post": {
				"tags": [
					"books"
				],
				"summary": "蔵書登録",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/books/{book_id}/copies": {
			"patch": {
				"tags": [
					"books"
				],
				"summary": "所蔵数の変更",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "book_id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/issues": {
			"post": {
				"tags": [
					"issues"
				],
				"summary": "貸出",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			},
			"get": {
				"tags": [
					"issues"
				],
				"summary": "貸出一覧",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/issues/{issue_id}": {
			"get": {
				"tags": [
					"issues"
				],
				"summary": "貸出詳細",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"404": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "issue_id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/issues/{issue_id}/return": {
			"post": {
				"tags": [
					"issues"
				],
				"summary": "返却（罰金はここで確定）",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "issue_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/sweep": {
			"post": {
				"tags": [
					"issues"
				],
				"summary": "延滞スイープを今すぐ実行",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/fines": {
			"get": {
				"tags": [
					"fines"
				],
				"summary": "罰金一覧",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/fines/stats": {
			"get": {
				"tags": [
					"fines"
				],
				"summary": "罰金の集計",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/fines/{fine_id}": {
			"get": {
				"tags": [
					"fines"
				],
				"summary": "罰金詳細",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"404": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "fine_id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/fines/{fine_id}/pay": {
			"post": {
				"tags": [
					"fines"
				],
				"summary": "罰金の支払い（窓口での現金等）",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "fine_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/fines/{fine_id}/waive": {
			"post": {
				"tags": [
					"fines"
				],
				"summary": "罰金の免除",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "fine_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/fines/{fine_id}/remind": {
			"post": {
				"tags": [
					"fines"
				],
				"summary": "督促通知",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "fine_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/requests": {
			"get": {
				"tags": [
					"requests"
				],
				"summary": "申請一覧",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/requests/{request_id}/approve": {
			"post": {
				"tags": [
					"requests"
				],
				"summary": "申請の承認",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "request_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/requests/{request_id}/reject": {
			"post": {
				"tags": [
					"requests"
				],
				"summary": "申請の却下",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "request_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "24h 以内の同じキーは 409 DUPLICATE_SUBMISSION",
						"name": "Idempotency-Key",
						"in": "header"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/settings": {
			"get": {
				"tags": [
					"settings"
				],
				"summary": "設定一覧（実効値）",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/settings/{key}": {
			"put": {
				"tags": [
					"settings"
				],
				"summary": "設定の更新",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "key",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		},
		"/admin/accounts": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "アカウント登録",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"400": {
						"description": "INVALID_ARGUMENT",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					},
					"409": {
						"description": "CONFLICT / NOT_FOUND",
						"schema": {
							"$ref": "#/definitions/apierr.ErrorBody"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				]
			}
		}
	},
	"definitions": {
		"apierr.ErrorBody": {
			"type": "object",
			"properties": {
				"error": {
					"type": "object",
					"properties": {
						"code": {
							"type": "string"
						},
						"message": {
							"type": "string"
						}
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Circulation API",
	Description:      "貸出・返却・延滞罰金・取り寄せ申請",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
