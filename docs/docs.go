// Package docs is generated by swaggo/swag from the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "DucCV"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/account/register": {
			"post": {
				"tags": [
					"Account"
				],
				"summary": "Register",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/request.Register"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/service.Session"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		},
		"/account/login": {
			"post": {
				"tags": [
					"Account"
				],
				"summary": "Login",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/request.Login"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/service.Session"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		},
		"/account/me": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Account"
				],
				"summary": "Current account",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/model.Identity"
										}
									}
								}
							]
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		},
		"/protected": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Account"
				],
				"summary": "Protected probe",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		},
		"/movies": {
			"get": {
				"tags": [
					"Movies"
				],
				"summary": "Search movies",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "title",
						"in": "query"
					},
					{
						"type": "string",
						"name": "genre",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "releaseYear",
						"in": "query"
					},
					{
						"type": "integer",
						"default": 1,
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"default": 10,
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/model.MoviePage"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			},
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Movies"
				],
				"summary": "Create movie",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/request.Movie"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/model.Movie"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		},
		"/movies/top/rating-score": {
			"get": {
				"tags": [
					"Movies"
				],
				"summary": "Top rated movies",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"default": 10,
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"type": "array",
											"items": {
												"$ref": "#/definitions/model.MovieDetail"
											}
										}
									}
								}
							]
						}
					}
				}
			}
		},
		"/movies/{id}": {
			"get": {
				"tags": [
					"Movies"
				],
				"summary": "Get movie",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"name": "If-None-Match",
						"in": "header"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/model.MovieDetail"
										}
									}
								}
							]
						}
					},
					"304": {
						"description": "Not Modified"
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Movies"
				],
				"summary": "Update movie",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/request.Movie"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/model.Movie"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Movies"
				],
				"summary": "Delete movie",
				"description": "Deletes the movie and all of its ratings",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		},
		"/movies/{id}/ratings": {
			"get": {
				"tags": [
					"Movies"
				],
				"summary": "List ratings of a movie",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"type": "array",
											"items": {
												"$ref": "#/definitions/model.RatingDetail"
											}
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		},
		"/ratings": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Ratings"
				],
				"summary": "Rate a movie",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/request.CreateRating"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/model.Rating"
										}
									}
								}
							]
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		},
		"/ratings/{id}": {
			"get": {
				"tags": [
					"Ratings"
				],
				"summary": "Get rating",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/model.RatingDetail"
										}
									}
								}
							]
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Ratings"
				],
				"summary": "Update own rating",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/request.UpdateRating"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"allOf": [
								{
									"$ref": "#/definitions/response.ResponseData"
								},
								{
									"type": "object",
									"properties": {
										"data": {
											"$ref": "#/definitions/model.Rating"
										}
									}
								}
							]
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"tags": [
					"Ratings"
				],
				"summary": "Delete own rating",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/response.ResponseData"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"response.ResponseData": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"message": {
					"type": "string"
				},
				"data": {}
			}
		},
		"request.Register": {
			"type": "object",
			"required": [
				"email",
				"name",
				"password"
			],
			"properties": {
				"name": {
					"type": "string",
					"maxLength": 100
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string",
					"minLength": 6,
					"maxLength": 72
				}
			}
		},
		"request.Login": {
			"type": "object",
			"required": [
				"email",
				"password"
			],
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"request.Movie": {
			"type": "object",
			"required": [
				"genre",
				"releaseYear",
				"title"
			],
			"properties": {
				"title": {
					"type": "string",
					"maxLength": 200
				},
				"genre": {
					"type": "string",
					"maxLength": 100
				},
				"releaseYear": {
					"type": "integer",
					"minimum": 1888
				}
			}
		},
		"request.CreateRating": {
			"type": "object",
			"required": [
				"movieId",
				"score"
			],
			"properties": {
				"movieId": {
					"type": "string"
				},
				"score": {
					"type": "integer",
					"minimum": 1,
					"maximum": 5
				},
				"comment": {
					"type": "string",
					"maxLength": 1000
				}
			}
		},
		"request.UpdateRating": {
			"type": "object",
			"required": [
				"score"
			],
			"properties": {
				"score": {
					"type": "integer",
					"minimum": 1,
					"maximum": 5
				},
				"comment": {
					"type": "string",
					"maxLength": 1000
				}
			}
		},
		"model.Identity": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"role": {
					"type": "string",
					"enum": [
						"user",
						"admin"
					]
				},
				"status": {
					"type": "string",
					"enum": [
						"active",
						"disabled"
					]
				},
				"verified": {
					"type": "boolean"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"model.IdentitySummary": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				}
			}
		},
		"model.Movie": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"genre": {
					"type": "string"
				},
				"releaseYear": {
					"type": "integer"
				},
				"averageRating": {
					"type": "number"
				},
				"createdBy": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"model.MovieDetail": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"genre": {
					"type": "string"
				},
				"releaseYear": {
					"type": "integer"
				},
				"averageRating": {
					"type": "number"
				},
				"createdBy": {
					"$ref": "#/definitions/model.IdentitySummary"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"model.MoviePage": {
			"type": "object",
			"properties": {
				"movies": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/model.MovieDetail"
					}
				},
				"items": {
					"type": "integer"
				},
				"total": {
					"type": "integer"
				},
				"page": {
					"type": "integer"
				},
				"pages": {
					"type": "integer"
				}
			}
		},
		"model.Rating": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user": {
					"type": "string"
				},
				"movie": {
					"type": "string"
				},
				"score": {
					"type": "integer"
				},
				"comment": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"model.RatingDetail": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/model.IdentitySummary"
				},
				"movie": {
					"type": "string"
				},
				"score": {
					"type": "integer"
				},
				"comment": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"service.Session": {
			"type": "object",
			"properties": {
				"user": {
					"$ref": "#/definitions/model.Identity"
				},
				"token": {
					"type": "string"
				},
				"expiresIn": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "RS256 access token as \"Bearer <token>\"",
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
	Title:            "Movie Rating APIs",
	Description:      "Movie catalogue with per-user ratings, bearer-token auth and role-gated administration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
