// Package docs holds the Swagger document served at /swagger.
// Regenerate with swag init -g cmd/api/main.go after changing handler annotations.
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
        "/auth/login": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Log in",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.LoginResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "Get current identity",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/settings": {
            "get": {
                "tags": [
                    "Settings"
                ],
                "summary": "Get settings",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Settings"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Settings"
                ],
                "summary": "Update settings",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.UpdateSettingsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Settings"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations": {
            "get": {
                "tags": [
                    "Quotations"
                ],
                "summary": "List quotations",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "default": 1,
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 20,
                        "name": "pageSize",
                        "in": "query"
                    },
                    {
                        "enum": [
                            "Pending",
                            "Accepted",
                            "Rejected",
                            "Invoiced"
                        ],
                        "type": "string",
                        "name": "status",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "clientId",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "search",
                        "in": "query"
                    },
                    {
                        "enum": [
                            "created_desc",
                            "created_asc",
                            "client_asc",
                            "client_desc"
                        ],
                        "type": "string",
                        "name": "sortBy",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Create quotation",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.CreateQuotationRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.QuotationDTO"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/extract": {
            "post": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Create quotation from notes",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.ExtractQuotationRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.QuotationDTO"
                        }
                    },
                    "502": {
                        "description": "Extraction failed",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    },
                    "503": {
                        "description": "Extraction not configured",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/extract/image": {
            "post": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Create quotation from a photo",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "parameters": [
                    {
                        "type": "file",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.QuotationDTO"
                        }
                    },
                    "413": {
                        "description": "Too Large",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    },
                    "415": {
                        "description": "Unsupported Media Type",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    },
                    "502": {
                        "description": "Extraction failed",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}": {
            "get": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Get quotation",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.QuotationDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Update quotation",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.UpdateQuotationRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.QuotationDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Delete quotation",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}/totals": {
            "get": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Get quotation totals",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Totals"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}/export": {
            "get": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Export quotation",
                "produces": [
                    "text/csv",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "enum": [
                            "csv",
                            "xlsx"
                        ],
                        "type": "string",
                        "default": "csv",
                        "name": "format",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}/photo": {
            "get": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Download source photo",
                "produces": [
                    "image/jpeg",
                    "image/png"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}/status": {
            "post": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Change quotation status",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.UpdateQuotationStatusRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.QuotationDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    },
                    "409": {
                        "description": "Transition not allowed",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}/duplicate": {
            "post": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Duplicate quotation",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.QuotationDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}/checklist/{index}": {
            "patch": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Toggle checklist item",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "name": "index",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/domain.ToggleChecklistRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.QuotationDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}/invoice": {
            "post": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Convert quotation to invoice",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/domain.ConvertToInvoiceRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.InvoiceDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    },
                    "409": {
                        "description": "Not accepted or already invoiced",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/quotations/{id}/client": {
            "post": {
                "tags": [
                    "Quotations"
                ],
                "summary": "Save quotation client",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.ClientDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/invoices": {
            "get": {
                "tags": [
                    "Invoices"
                ],
                "summary": "List invoices",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "default": 1,
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 20,
                        "name": "pageSize",
                        "in": "query"
                    },
                    {
                        "enum": [
                            "Unpaid",
                            "Paid",
                            "Overdue"
                        ],
                        "type": "string",
                        "name": "paymentStatus",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "clientId",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "search",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/invoices/{id}": {
            "get": {
                "tags": [
                    "Invoices"
                ],
                "summary": "Get invoice",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.InvoiceDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Invoices"
                ],
                "summary": "Update invoice",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.UpdateInvoiceRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.InvoiceDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Invoices"
                ],
                "summary": "Delete invoice",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/invoices/{id}/pay": {
            "post": {
                "tags": [
                    "Invoices"
                ],
                "summary": "Mark invoice paid",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/domain.MarkInvoicePaidRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.InvoiceDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    },
                    "409": {
                        "description": "Already paid",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/invoices/{id}/totals": {
            "get": {
                "tags": [
                    "Invoices"
                ],
                "summary": "Get invoice totals",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Totals"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/invoices/{id}/export": {
            "get": {
                "tags": [
                    "Invoices"
                ],
                "summary": "Export invoice",
                "produces": [
                    "text/csv",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "enum": [
                            "csv",
                            "xlsx"
                        ],
                        "type": "string",
                        "default": "csv",
                        "name": "format",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/clients": {
            "get": {
                "tags": [
                    "Clients"
                ],
                "summary": "List clients",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "default": 1,
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 20,
                        "name": "pageSize",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "search",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Clients"
                ],
                "summary": "Create client",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.CreateClientRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.ClientDTO"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/clients/{id}": {
            "get": {
                "tags": [
                    "Clients"
                ],
                "summary": "Get client",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.ClientDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Clients"
                ],
                "summary": "Update client",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.UpdateClientRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.ClientDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Clients"
                ],
                "summary": "Delete client",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/expenses": {
            "get": {
                "tags": [
                    "Expenses"
                ],
                "summary": "List expenses",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "default": 1,
                        "name": "page",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "default": 20,
                        "name": "pageSize",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "from",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "to",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "category",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "quotationId",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PaginatedResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Expenses"
                ],
                "summary": "Record expense",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.CreateExpenseRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/domain.ExpenseDTO"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/expenses/{id}": {
            "get": {
                "tags": [
                    "Expenses"
                ],
                "summary": "Get expense",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.ExpenseDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "put": {
                "tags": [
                    "Expenses"
                ],
                "summary": "Update expense",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.UpdateExpenseRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.ExpenseDTO"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "delete": {
                "tags": [
                    "Expenses"
                ],
                "summary": "Delete expense",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/dashboard": {
            "get": {
                "tags": [
                    "Dashboard"
                ],
                "summary": "Get dashboard metrics",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.DashboardDTO"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        },
        "/backup": {
            "get": {
                "tags": [
                    "Backup"
                ],
                "summary": "Download backup",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.Backup"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Backup"
                ],
                "summary": "Restore backup",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/domain.Backup"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.BackupImportResult"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/domain.APIError"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    },
                    {
                        "ApiKeyAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "domain.APIError": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "detail": {
                    "type": "string"
                },
                "errors": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        },
        "domain.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "code": {
                    "type": "integer"
                }
            }
        },
        "domain.PaginatedResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "total": {
                    "type": "integer"
                },
                "page": {
                    "type": "integer"
                },
                "pageSize": {
                    "type": "integer"
                },
                "totalPages": {
                    "type": "integer"
                }
            }
        },
        "domain.ClientDetails": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "projectName": {
                    "type": "string"
                },
                "showName": {
                    "type": "boolean"
                },
                "showAddress": {
                    "type": "boolean"
                },
                "showPhone": {
                    "type": "boolean"
                },
                "showProjectName": {
                    "type": "boolean"
                }
            }
        },
        "domain.TileItem": {
            "type": "object",
            "properties": {
                "category": {
                    "type": "string"
                },
                "sqm": {
                    "type": "number"
                },
                "cartons": {
                    "type": "number"
                },
                "unitPrice": {
                    "type": "number"
                },
                "size": {
                    "type": "string"
                },
                "classification": {
                    "type": "string"
                }
            }
        },
        "domain.MaterialItem": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "quantity": {
                    "type": "number"
                },
                "unit": {
                    "type": "string"
                },
                "unitPrice": {
                    "type": "number"
                }
            }
        },
        "domain.ChecklistItem": {
            "type": "object",
            "properties": {
                "label": {
                    "type": "string"
                },
                "done": {
                    "type": "boolean"
                }
            }
        },
        "domain.Totals": {
            "type": "object",
            "properties": {
                "totalSqm": {
                    "type": "number"
                },
                "totalTileCost": {
                    "type": "number"
                },
                "totalMaterialCost": {
                    "type": "number"
                },
                "workmanshipCost": {
                    "type": "number"
                },
                "workmanshipAndMaintenance": {
                    "type": "number"
                },
                "preProfitTotal": {
                    "type": "number"
                },
                "profitAmount": {
                    "type": "number"
                },
                "subtotal": {
                    "type": "number"
                },
                "discountAmount": {
                    "type": "number"
                },
                "postDiscountSubtotal": {
                    "type": "number"
                },
                "taxAmount": {
                    "type": "number"
                },
                "grandTotal": {
                    "type": "number"
                }
            }
        },
        "domain.TileRate": {
            "type": "object",
            "properties": {
                "sqmPerCarton": {
                    "type": "number"
                },
                "pricePerCarton": {
                    "type": "number"
                }
            }
        },
        "domain.Settings": {
            "type": "object",
            "properties": {
                "businessName": {
                    "type": "string"
                },
                "currency": {
                    "type": "string"
                },
                "wall": {
                    "$ref": "#/definitions/domain.TileRate"
                },
                "floor": {
                    "$ref": "#/definitions/domain.TileRate"
                },
                "externalWall": {
                    "$ref": "#/definitions/domain.TileRate"
                },
                "step": {
                    "$ref": "#/definitions/domain.TileRate"
                },
                "wastageFactor": {
                    "type": "number"
                },
                "cementPrice": {
                    "type": "number"
                },
                "whiteCementPrice": {
                    "type": "number"
                },
                "sandPrice": {
                    "type": "number"
                },
                "workmanshipRate": {
                    "type": "number"
                },
                "showUnitPrice": {
                    "type": "boolean"
                },
                "showTileSize": {
                    "type": "boolean"
                },
                "showSubtotal": {
                    "type": "boolean"
                },
                "showMaintenance": {
                    "type": "boolean"
                },
                "showTax": {
                    "type": "boolean"
                },
                "taxPercentage": {
                    "type": "number"
                },
                "showTerms": {
                    "type": "boolean"
                },
                "defaultTerms": {
                    "type": "string"
                },
                "bankDetails": {
                    "type": "string"
                },
                "revision": {
                    "type": "integer"
                }
            }
        },
        "domain.UpdateSettingsRequest": {
            "type": "object",
            "properties": {
                "businessName": {
                    "type": "string"
                },
                "currency": {
                    "type": "string"
                },
                "wall": {
                    "$ref": "#/definitions/domain.TileRate"
                },
                "floor": {
                    "$ref": "#/definitions/domain.TileRate"
                },
                "externalWall": {
                    "$ref": "#/definitions/domain.TileRate"
                },
                "step": {
                    "$ref": "#/definitions/domain.TileRate"
                },
                "wastageFactor": {
                    "type": "number"
                },
                "cementPrice": {
                    "type": "number"
                },
                "whiteCementPrice": {
                    "type": "number"
                },
                "sandPrice": {
                    "type": "number"
                },
                "workmanshipRate": {
                    "type": "number"
                },
                "showUnitPrice": {
                    "type": "boolean"
                },
                "showTileSize": {
                    "type": "boolean"
                },
                "showSubtotal": {
                    "type": "boolean"
                },
                "showMaintenance": {
                    "type": "boolean"
                },
                "showTax": {
                    "type": "boolean"
                },
                "taxPercentage": {
                    "type": "number"
                },
                "showTerms": {
                    "type": "boolean"
                },
                "defaultTerms": {
                    "type": "string"
                },
                "bankDetails": {
                    "type": "string"
                }
            }
        },
        "domain.QuotationDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "clientDetails": {
                    "$ref": "#/definitions/domain.ClientDetails"
                },
                "clientId": {
                    "type": "string"
                },
                "tiles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.TileItem"
                    }
                },
                "materials": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.MaterialItem"
                    }
                },
                "workmanshipRate": {
                    "type": "number"
                },
                "maintenance": {
                    "type": "number"
                },
                "profitPercentage": {
                    "type": "number"
                },
                "checklist": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.ChecklistItem"
                    }
                },
                "terms": {
                    "type": "string"
                },
                "invoiceId": {
                    "type": "string"
                },
                "sourceNotes": {
                    "type": "string"
                },
                "sourceImagePath": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                },
                "totals": {
                    "$ref": "#/definitions/domain.Totals"
                }
            }
        },
        "domain.InvoiceDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "quotationId": {
                    "type": "string"
                },
                "invoiceNumber": {
                    "type": "string"
                },
                "issueDate": {
                    "type": "string"
                },
                "dueDate": {
                    "type": "string"
                },
                "paymentStatus": {
                    "type": "string"
                },
                "clientDetails": {
                    "$ref": "#/definitions/domain.ClientDetails"
                },
                "clientId": {
                    "type": "string"
                },
                "tiles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.TileItem"
                    }
                },
                "materials": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.MaterialItem"
                    }
                },
                "workmanshipRate": {
                    "type": "number"
                },
                "maintenance": {
                    "type": "number"
                },
                "profitPercentage": {
                    "type": "number"
                },
                "discountType": {
                    "type": "string"
                },
                "discountValue": {
                    "type": "number"
                },
                "bankDetails": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "paidAt": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                },
                "totals": {
                    "$ref": "#/definitions/domain.Totals"
                }
            }
        },
        "domain.CreateQuotationRequest": {
            "type": "object",
            "properties": {
                "clientDetails": {
                    "$ref": "#/definitions/domain.ClientDetails"
                },
                "clientId": {
                    "type": "string"
                },
                "tiles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.TileItem"
                    }
                },
                "materials": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.MaterialItem"
                    }
                },
                "workmanshipRate": {
                    "type": "number"
                },
                "maintenance": {
                    "type": "number"
                },
                "profitPercentage": {
                    "type": "number"
                },
                "checklist": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.ChecklistItem"
                    }
                },
                "terms": {
                    "type": "string"
                },
                "sourceNotes": {
                    "type": "string"
                }
            }
        },
        "domain.UpdateQuotationRequest": {
            "type": "object",
            "properties": {
                "clientDetails": {
                    "$ref": "#/definitions/domain.ClientDetails"
                },
                "clientId": {
                    "type": "string"
                },
                "tiles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.TileItem"
                    }
                },
                "materials": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.MaterialItem"
                    }
                },
                "workmanshipRate": {
                    "type": "number"
                },
                "maintenance": {
                    "type": "number"
                },
                "profitPercentage": {
                    "type": "number"
                },
                "clearProfit": {
                    "type": "boolean"
                },
                "checklist": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.ChecklistItem"
                    }
                },
                "terms": {
                    "type": "string"
                }
            }
        },
        "domain.UpdateQuotationStatusRequest": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "enum": [
                        "Pending",
                        "Accepted",
                        "Rejected"
                    ]
                }
            }
        },
        "domain.ToggleChecklistRequest": {
            "type": "object",
            "properties": {
                "done": {
                    "type": "boolean"
                }
            }
        },
        "domain.ExtractQuotationRequest": {
            "type": "object",
            "properties": {
                "notes": {
                    "type": "string"
                }
            }
        },
        "domain.ConvertToInvoiceRequest": {
            "type": "object",
            "properties": {
                "discountType": {
                    "type": "string",
                    "enum": [
                        "none",
                        "percentage",
                        "amount"
                    ]
                },
                "discountValue": {
                    "type": "number"
                },
                "bankDetails": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "dueDate": {
                    "type": "string"
                }
            }
        },
        "domain.UpdateInvoiceRequest": {
            "type": "object",
            "properties": {
                "discountType": {
                    "type": "string",
                    "enum": [
                        "none",
                        "percentage",
                        "amount"
                    ]
                },
                "discountValue": {
                    "type": "number"
                },
                "bankDetails": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "dueDate": {
                    "type": "string"
                }
            }
        },
        "domain.MarkInvoicePaidRequest": {
            "type": "object",
            "properties": {
                "paidAt": {
                    "type": "string"
                }
            }
        },
        "domain.CreateClientRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "domain.UpdateClientRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "domain.ClientDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "phone": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                },
                "stats": {
                    "type": "object",
                    "properties": {
                        "quotationCount": {
                            "type": "integer"
                        },
                        "acceptedValue": {
                            "type": "number"
                        },
                        "invoicedValue": {
                            "type": "number"
                        },
                        "paidValue": {
                            "type": "number"
                        }
                    }
                }
            }
        },
        "domain.CreateExpenseRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "amount": {
                    "type": "string"
                },
                "quotationId": {
                    "type": "string"
                }
            }
        },
        "domain.UpdateExpenseRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "amount": {
                    "type": "string"
                },
                "quotationId": {
                    "type": "string"
                }
            }
        },
        "domain.ExpenseDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "date": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "amount": {
                    "type": "string"
                },
                "quotationId": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                }
            }
        },
        "domain.DashboardDTO": {
            "type": "object",
            "properties": {
                "quotationCounts": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "invoiceCounts": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "pipelineValue": {
                    "type": "number"
                },
                "acceptedValue": {
                    "type": "number"
                },
                "invoicedTotal": {
                    "type": "number"
                },
                "paidRevenue": {
                    "type": "number"
                },
                "outstanding": {
                    "type": "number"
                },
                "overdueTotal": {
                    "type": "number"
                },
                "totalExpenses": {
                    "type": "number"
                },
                "netProfit": {
                    "type": "number"
                },
                "conversionRate": {
                    "type": "number"
                },
                "monthlySeries": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "month": {
                                "type": "string"
                            },
                            "revenue": {
                                "type": "number"
                            },
                            "expenses": {
                                "type": "number"
                            }
                        }
                    }
                },
                "recentQuotations": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/domain.QuotationDTO"
                    }
                }
            }
        },
        "domain.Backup": {
            "type": "object",
            "properties": {
                "version": {
                    "type": "integer"
                },
                "exportedAt": {
                    "type": "string"
                },
                "quotations": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "invoices": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "clients": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "expenses": {
                    "type": "array",
                    "items": {
                        "type": "object"
                    }
                },
                "settings": {
                    "$ref": "#/definitions/domain.Settings"
                }
            }
        },
        "domain.BackupImportResult": {
            "type": "object",
            "properties": {
                "quotations": {
                    "type": "integer"
                },
                "invoices": {
                    "type": "integer"
                },
                "clients": {
                    "type": "integer"
                },
                "expenses": {
                    "type": "integer"
                },
                "settings": {
                    "type": "boolean"
                }
            }
        },
        "domain.LoginRequest": {
            "type": "object",
            "properties": {
                "username": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "domain.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {
                    "type": "string"
                },
                "expiresAt": {
                    "type": "string"
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "description": "API key for automation",
            "type": "apiKey",
            "name": "x-api-key",
            "in": "header"
        },
        "BearerAuth": {
            "description": "JWT bearer token from /auth/login",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Tile Quote API",
	Description:      "Quotation, invoicing and bookkeeping API for tiling contractors",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
