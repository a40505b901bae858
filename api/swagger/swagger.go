package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grid Training Evaluation API",
        "description": "Multi-tenant evaluation of grid operator training cycles and simulator sessions",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [
        {"name": "Auth", "description": "Login and token lifecycle"},
        {"name": "Companies", "description": "Tenant management"},
        {"name": "Users", "description": "Operators, trainers and admins"},
        {"name": "Cycles", "description": "Training cycles"},
        {"name": "Events", "description": "Graded cycle events"},
        {"name": "Scenarios", "description": "Simulator scenarios and steps"},
        {"name": "Sessions", "description": "Simulator sessions and step results"},
        {"name": "Dashboard", "description": "Per-company overview"},
        {"name": "Reports", "description": "Evaluation form exports"}
    ],
    "paths": {
        "/health": {"get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}, "503": {"description": "Degraded"}}
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/LoginRequest"}
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate refresh token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RefreshTokenRequest"}
                    }
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke refresh token",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RefreshTokenRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change password",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ChangePasswordRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/companies": {
            "post": {
                "tags": ["Companies"],
                "summary": "Create company",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateCompanyRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "get": {
                "tags": ["Companies"],
                "summary": "List companies",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "include_inactive", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/companies/{id}": {
            "get": {
                "tags": ["Companies"],
                "summary": "Get company",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Companies"],
                "summary": "Update company",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateCompanyRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Companies"],
                "summary": "Delete company",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/users": {
            "post": {
                "tags": ["Users"],
                "summary": "Create user",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateUserRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/users/company/{companyId}": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"name": "companyId", "in": "path", "required": true, "type": "string"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Users"],
                "summary": "Update user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateUserRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Users"],
                "summary": "Delete user",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/cycles": {
            "post": {
                "tags": ["Cycles"],
                "summary": "Create cycle",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateCycleRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/cycles/company/{companyId}": {
            "get": {
                "tags": ["Cycles"],
                "summary": "List cycles",
                "parameters": [
                    {"name": "companyId", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "trainer_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/cycles/{id}": {
            "get": {
                "tags": ["Cycles"],
                "summary": "Get cycle",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Cycles"],
                "summary": "Update cycle",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateCycleRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Cycles"],
                "summary": "Delete cycle",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/cycles/student/{studentId}": {
            "get": {
                "tags": ["Cycles"],
                "summary": "List cycles of a student",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/events": {
            "post": {
                "tags": ["Events"],
                "summary": "Create event",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateEventRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/events/cycle/{cycleId}": {
            "get": {
                "tags": ["Events"],
                "summary": "List events",
                "parameters": [
                    {"name": "cycleId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get event",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Events"],
                "summary": "Update event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateEventRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete event",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/events/{id}/grade": {
            "post": {
                "tags": ["Events"],
                "summary": "Grade event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/GradeEventRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/scenarios": {
            "post": {
                "tags": ["Scenarios"],
                "summary": "Create scenario",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateScenarioRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "get": {
                "tags": ["Scenarios"],
                "summary": "List scenarios",
                "parameters": [
                    {"name": "company_id", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "difficulty", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/scenarios/{id}": {
            "get": {
                "tags": ["Scenarios"],
                "summary": "Get scenario",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Scenarios"],
                "summary": "Update scenario",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateScenarioRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Scenarios"],
                "summary": "Delete scenario",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/steps": {
            "post": {
                "tags": ["Scenarios"],
                "summary": "Create step",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateStepRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/steps/scenario/{scenarioId}": {
            "get": {
                "tags": ["Scenarios"],
                "summary": "List steps",
                "parameters": [{"name": "scenarioId", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/steps/{id}": {
            "patch": {
                "tags": ["Scenarios"],
                "summary": "Update step",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateStepRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Scenarios"],
                "summary": "Delete step",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Create session",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateSessionRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/sessions/company/{companyId}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "parameters": [
                    {"name": "companyId", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "scenario_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get session",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Sessions"],
                "summary": "Update session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/UpdateSessionRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete session",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/sessions/student/{studentId}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions of a student",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/sessions/{id}/start": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Start session",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/sessions/{id}/finish": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Finish session",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/sessions/{id}/abandon": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Abandon session",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/sessions/{id}/live": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Live session feed (websocket)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "access_token", "in": "query", "type": "string"}
                ],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "101": {
                        "description": "Switching Protocols",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/step-results": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Record step result",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/RecordStepResultRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/step-results/session/{sessionId}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List step results",
                "parameters": [{"name": "sessionId", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Company dashboard",
                "parameters": [{"name": "company_id", "in": "query", "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue report export",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/ReportRequest"}
                    }
                ],
                "security": [{"BearerAuth": []}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File"}, "403": {"description": "Invalid or expired token"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}},
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {"refresh_token": {"type": "string"}},
            "required": ["refresh_token"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {"old_password": {"type": "string"}, "new_password": {"type": "string"}},
            "required": ["old_password", "new_password"]
        },
        "CreateCompanyRequest": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "industry": {"type": "string"}, "description": {"type": "string"}},
            "required": ["name"]
        },
        "UpdateCompanyRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "industry": {"type": "string"},
                "description": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "company_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["super_admin", "admin", "trainer", "student"]},
                "password": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["name", "email", "role", "password"]
        },
        "UpdateUserRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["super_admin", "admin", "trainer", "student"]},
                "active": {"type": "boolean"}
            }
        },
        "CreateCycleRequest": {
            "type": "object",
            "properties": {
                "company_id": {"type": "string"},
                "student_id": {"type": "string"},
                "trainer_id": {"type": "string"},
                "title": {"type": "string"},
                "type": {"type": "string", "enum": ["field", "simulator"]},
                "min_passing_score": {"type": "number"},
                "notes": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            },
            "required": ["student_id", "trainer_id", "title", "type"]
        },
        "UpdateCycleRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "type": {"type": "string", "enum": ["field", "simulator"]},
                "trainer_id": {"type": "string"},
                "min_passing_score": {"type": "number"},
                "progress": {"type": "number"},
                "notes": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "properties": {
                "cycle_id": {"type": "string"},
                "title": {"type": "string"},
                "sequence": {"type": "integer"},
                "max_score": {"type": "number"},
                "weight": {"type": "number"},
                "has_penalty": {"type": "boolean"},
                "notes": {"type": "string"}
            },
            "required": ["cycle_id", "title", "max_score"]
        },
        "UpdateEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "sequence": {"type": "integer"},
                "max_score": {"type": "number"},
                "weight": {"type": "number"},
                "has_penalty": {"type": "boolean"},
                "status": {"type": "string", "enum": ["pending", "skipped"]},
                "notes": {"type": "string"}
            }
        },
        "GradeEventRequest": {
            "type": "object",
            "properties": {
                "raw_score": {"type": "number"},
                "status": {"type": "string", "enum": ["pass", "fail"]},
                "has_penalty": {"type": "boolean"},
                "penalty_amount": {"type": "number"},
                "notes": {"type": "string"}
            },
            "required": ["raw_score"]
        },
        "StepInput": {
            "type": "object",
            "properties": {
                "step_order": {"type": "integer"},
                "title": {"type": "string"},
                "instruction": {"type": "string"},
                "action_type": {"type": "string"},
                "expected_action": {"type": "string"},
                "points": {"type": "number"},
                "is_critical": {"type": "boolean"},
                "time_limit": {"type": "integer"}
            },
            "required": ["step_order", "title", "action_type"]
        },
        "CreateScenarioRequest": {
            "type": "object",
            "properties": {
                "company_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string", "enum": ["Fault", "Maintenance", "Overload", "Topology"]},
                "difficulty": {"type": "string", "enum": ["Easy", "Medium", "Hard"]},
                "passing_score": {"type": "number"},
                "steps": {"type": "array", "items": {"$ref": "#/definitions/StepInput"}}
            },
            "required": ["title", "category", "difficulty"]
        },
        "UpdateScenarioRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string", "enum": ["Fault", "Maintenance", "Overload", "Topology"]},
                "difficulty": {"type": "string", "enum": ["Easy", "Medium", "Hard"]},
                "passing_score": {"type": "number"}
            }
        },
        "CreateStepRequest": {
            "type": "object",
            "properties": {
                "scenario_id": {"type": "string"},
                "step_order": {"type": "integer"},
                "title": {"type": "string"},
                "instruction": {"type": "string"},
                "action_type": {"type": "string"},
                "expected_action": {"type": "string"},
                "points": {"type": "number"},
                "is_critical": {"type": "boolean"},
                "time_limit": {"type": "integer"}
            },
            "required": ["scenario_id", "step_order", "title", "action_type"]
        },
        "UpdateStepRequest": {
            "type": "object",
            "properties": {
                "step_order": {"type": "integer"},
                "title": {"type": "string"},
                "instruction": {"type": "string"},
                "action_type": {"type": "string"},
                "expected_action": {"type": "string"},
                "points": {"type": "number"},
                "is_critical": {"type": "boolean"},
                "time_limit": {"type": "integer"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "properties": {
                "scenario_id": {"type": "string"},
                "student_id": {"type": "string"},
                "company_id": {"type": "string"}
            },
            "required": ["scenario_id", "student_id"]
        },
        "UpdateSessionRequest": {"type": "object", "properties": {"logs": {"type": "array", "items": {"type": "string"}}}},
        "RecordStepResultRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "step_id": {"type": "string"},
                "is_correct": {"type": "boolean"},
                "points_awarded": {"type": "number"},
                "response_time": {"type": "integer"},
                "action_taken": {"type": "string"}
            },
            "required": ["session_id", "step_id"]
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["cycle", "session"]},
                "resource_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["type", "resource_id", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}
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
