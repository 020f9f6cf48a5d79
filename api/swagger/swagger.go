package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Deming Dormitory Roll Call API",
        "description": "Nightly room-check records for the Deming dormitory: roster import, submissions, history and exports.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Cookie sessions for dormitory staff"},
        {"name": "Students", "description": "Roster and floor groups"},
        {"name": "Attendance", "description": "Room checks, history and exports"},
        {"name": "Observability", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database or cache unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/check-connection": {
            "get": {
                "tags": ["Observability"],
                "summary": "Database connectivity",
                "responses": {
                    "200": {"description": "Connection status", "schema": {"$ref": "#/definitions/ConnectionStatus"}}
                }
            }
        },
        "/api/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Log in",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Logged in; the session cookie is set", "schema": {"$ref": "#/definitions/Result"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Result"}}
                }
            }
        },
        "/api/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "Logged out", "schema": {"$ref": "#/definitions/Result"}}
                }
            }
        },
        "/api/check-login": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Session status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginStatus"}}
                }
            }
        },
        "/api/students": {
            "get": {
                "tags": ["Students"],
                "summary": "Students of one group",
                "parameters": [
                    {"name": "group", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Student"}}},
                    "401": {"description": "Not logged in", "schema": {"$ref": "#/definitions/Result"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Add a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Result"}},
                    "400": {"description": "Invalid student", "schema": {"$ref": "#/definitions/Result"}},
                    "403": {"description": "Restricted account", "schema": {"$ref": "#/definitions/Result"}},
                    "409": {"description": "Student id already exists", "schema": {"$ref": "#/definitions/Result"}}
                }
            }
        },
        "/api/students/all": {
            "get": {
                "tags": ["Students"],
                "summary": "Whole roster, optionally one group",
                "parameters": [
                    {"name": "group", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Student"}}},
                    "403": {"description": "Restricted account", "schema": {"$ref": "#/definitions/Result"}}
                }
            }
        },
        "/api/students/import": {
            "post": {
                "tags": ["Students"],
                "summary": "Import a roster sheet",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "Imported", "schema": {"$ref": "#/definitions/Result"}},
                    "400": {"description": "Unreadable sheet or missing columns", "schema": {"$ref": "#/definitions/Result"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/Result"}}
                }
            }
        },
        "/api/groups": {
            "get": {
                "tags": ["Students"],
                "summary": "Distinct floor groups",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}
                }
            }
        },
        "/api/attendance/submit": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Submit a room check",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Recorded", "schema": {"$ref": "#/definitions/SubmitAttendanceResponse"}},
                    "400": {"description": "Invalid submission", "schema": {"$ref": "#/definitions/Result"}},
                    "409": {"description": "Students already recorded for the date", "schema": {"$ref": "#/definitions/Result"}}
                }
            }
        },
        "/api/attendance/dates": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Dates with records, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}
                }
            }
        },
        "/api/attendance/history": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance history",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "group", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HistoryResponse"}}
                }
            }
        },
        "/api/attendance/export": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Download one date as a file",
                "produces": [
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "group", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["xlsx", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/Result"}}
                }
            }
        },
        "/api/attendance/clear": {
            "delete": {
                "tags": ["Attendance"],
                "summary": "Delete every attendance record",
                "responses": {
                    "200": {"description": "Cleared", "schema": {"$ref": "#/definitions/Result"}}
                }
            }
        }
    },
    "definitions": {
        "Result": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "code": {"type": "string"},
                "id": {"type": "string"},
                "count": {"type": "integer"},
                "user": {"$ref": "#/definitions/UserInfo"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UserInfo": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "display_name": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "LoginStatus": {
            "type": "object",
            "properties": {
                "loggedIn": {"type": "boolean"},
                "user": {"$ref": "#/definitions/UserInfo"}
            }
        },
        "ConnectionStatus": {
            "type": "object",
            "properties": {
                "connected": {"type": "boolean"},
                "version": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "Student": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "roomNumber": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "group_name": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["id", "name", "roomNumber", "phoneNumber", "group"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "roomNumber": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "group": {"type": "string"}
            }
        },
        "AttendanceEntry": {
            "type": "object",
            "required": ["student_id", "status"],
            "properties": {
                "student_id": {"type": "string"},
                "studentName": {"type": "string"},
                "status": {"type": "string", "enum": ["在寢", "未歸", "晚歸"]}
            }
        },
        "SubmitAttendanceRequest": {
            "type": "object",
            "required": ["date", "group", "attendanceData"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "group": {"type": "string"},
                "attendanceData": {"type": "array", "items": {"$ref": "#/definitions/AttendanceEntry"}}
            }
        },
        "SubmitAttendanceResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "count": {"type": "integer"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AttendanceRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "date": {"type": "string"},
                "student_id": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string"},
                "roomNumber": {"type": "string"},
                "group_name": {"type": "string"}
            }
        },
        "HistoryResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/AttendanceRecord"}}
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
