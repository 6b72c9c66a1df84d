// Package docs регистрирует описание admin API для swag и /swagger/*.
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
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Вход в админку",
                "parameters": [
                    {
                        "description": "Логин и пароль",
                        "name": "credentials",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Credentials"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Admin"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Выход",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Текущий администратор и команды",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/team-select": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["auth"],
                "summary": "Выбор команды",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["team"],
                "summary": "Сводка по команде",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DashboardStats"}}}
            }
        },
        "/members": {
            "get": {
                "tags": ["members"],
                "summary": "Участники команды",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/invitations": {
            "get": {
                "tags": ["invitations"],
                "summary": "Действующие приглашения",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["invitations"],
                "summary": "Новое приглашение",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/matches": {
            "get": {
                "tags": ["matches"],
                "summary": "Матчи команды",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["matches"],
                "summary": "Новый матч",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/matches/{matchID}/attendance": {
            "get": {
                "tags": ["matches"],
                "summary": "Явка на матч",
                "parameters": [{"type": "integer", "name": "matchID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/integration/stats": {
            "get": {
                "tags": ["integration"],
                "summary": "Статистика отправок в Telegram",
                "parameters": [
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "models.Admin": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "id": {"type": "integer"},
                "username": {"type": "string"}
            }
        },
        "models.Credentials": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "models.DashboardStats": {
            "type": "object",
            "properties": {
                "debtor_count": {"type": "integer"},
                "player_count": {"type": "integer"},
                "total_debt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/admin",
	Schemes:          []string{},
	Title:            "Team Manager Admin API",
	Description:      "Админка баскетбольной команды: состав, матчи, долги, приглашения.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
