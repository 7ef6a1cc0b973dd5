package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Tracker API",
        "description": "Semester timetables, class attendance, coursework and reminders for students",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Registration, sessions and passwords"},
        {"name": "Profile", "description": "User profile and avatar"},
        {"name": "Semesters", "description": "Semester lifecycle and overview"},
        {"name": "Subjects", "description": "Subjects and their weekly slots"},
        {"name": "Schedule", "description": "Occurrences, calendar and insights"},
        {"name": "Attendance", "description": "Per-occurrence attendance records"},
        {"name": "Coursework", "description": "Tests and assignments"},
        {"name": "Dashboard", "description": "Today, upcoming work and alerts"},
        {"name": "Notifications", "description": "Reminder preferences and push subscriptions"},
        {"name": "Reports", "description": "CSV, PDF, XLSX and ICS exports"},
        {"name": "Admin", "description": "Operational metrics"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke refresh token",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/update-password": {
            "put": {
                "tags": ["Auth"],
                "summary": "Change password",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/profile/me": {
            "get": {
                "tags": ["Profile"],
                "summary": "Current profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profile": {
            "put": {
                "tags": ["Profile"],
                "summary": "Update profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profile/avatar": {
            "post": {
                "tags": ["Profile"],
                "summary": "Upload avatar",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "avatar", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters": {
            "post": {
                "tags": ["Semesters"],
                "summary": "Create or update semester",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertSemesterRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/active": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Active semester",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No active semester", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/archived": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Archived semesters",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Get semester",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}/archive": {
            "put": {
                "tags": ["Semesters"],
                "summary": "Archive semester",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/semesters/{id}/overview": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Semester overview with per-subject statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects of a semester",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Semester archived", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects/{id}": {
            "put": {
                "tags": ["Subjects"],
                "summary": "Update subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/subjects/{id}/insights": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Attendance insights for a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Semester occurrences and statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/calendar": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Occurrences grouped by day for a month",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester_id", "in": "query", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "type": "string", "description": "YYYY-MM, defaults to the current month"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/upsert": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance for one occurrence",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/bulk": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark every class on a date as not held",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkNoClassRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests": {
            "get": {
                "tags": ["Coursework"],
                "summary": "List tests",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Coursework"],
                "summary": "Create test",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests/{id}": {
            "put": {
                "tags": ["Coursework"],
                "summary": "Update test",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Coursework"],
                "summary": "Delete test",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Coursework"],
                "summary": "List assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "semester_id", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Coursework"],
                "summary": "Create assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}": {
            "put": {
                "tags": ["Coursework"],
                "summary": "Update assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Coursework"],
                "summary": "Delete assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Today's classes, upcoming work and alert flag",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/preferences": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Reminder preferences",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Notifications"],
                "summary": "Replace reminder preferences",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NotificationPreferences"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/subscribe": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Register a push subscription",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubscribeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/subjects/{id}/log.csv": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the attendance log of a subject",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a semester report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/status/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished report with a signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Token invalid or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["Admin"],
                "summary": "Metrics snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "full_name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "ChangePasswordRequest": {
            "type": "object",
            "required": ["old_password", "new_password"],
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            }
        },
        "UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "college_name": {"type": "string"},
                "department": {"type": "string"},
                "phone": {"type": "string"},
                "dob": {"type": "string", "format": "date"}
            }
        },
        "UpsertSemesterRequest": {
            "type": "object",
            "required": ["name", "start_date", "end_date"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "year": {"type": "string"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "WeeklySlot": {
            "type": "object",
            "required": ["day_of_week", "start_time", "duration_hours"],
            "properties": {
                "day_of_week": {"type": "string", "enum": ["Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"]},
                "start_time": {"type": "string", "example": "09:00"},
                "duration_hours": {"type": "number"}
            }
        },
        "SubjectRequest": {
            "type": "object",
            "required": ["semester_id", "code", "name", "weekly_slots"],
            "properties": {
                "semester_id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "professor_name": {"type": "string"},
                "attendance_goal": {"type": "integer"},
                "weekly_slots": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/WeeklySlot"}
                }
            }
        },
        "UpsertAttendanceRequest": {
            "type": "object",
            "required": ["subject_id", "date", "official_status"],
            "properties": {
                "subject_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "official_status": {"type": "string", "enum": ["not_taken", "present", "absent", "no_class"]},
                "personal_status": {"type": "string", "enum": ["present", "absent"]},
                "reason": {"type": "string"},
                "duration_hours": {"type": "number"}
            }
        },
        "BulkNoClassRequest": {
            "type": "object",
            "required": ["semester_id", "date", "reason"],
            "properties": {
                "semester_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "reason": {"type": "string"}
            }
        },
        "TestRequest": {
            "type": "object",
            "required": ["subject_id", "name", "test_datetime"],
            "properties": {
                "subject_id": {"type": "string"},
                "name": {"type": "string"},
                "test_datetime": {"type": "string", "format": "date-time"},
                "status": {"type": "string"}
            }
        },
        "AssignmentRequest": {
            "type": "object",
            "required": ["subject_id", "name", "deadline"],
            "properties": {
                "subject_id": {"type": "string"},
                "name": {"type": "string"},
                "deadline": {"type": "string", "format": "date-time"},
                "status": {"type": "string"}
            }
        },
        "UpdateTestRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "name": {"type": "string"},
                "test_datetime": {"type": "string", "format": "date-time"},
                "status": {"type": "string", "enum": ["Pending", "Completed", "Cancelled"]}
            }
        },
        "UpdateAssignmentRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "name": {"type": "string"},
                "deadline": {"type": "string", "format": "date-time"},
                "status": {"type": "string", "enum": ["Pending", "Submitted", "Cancelled"]}
            }
        },
        "ChannelPreference": {
            "type": "object",
            "properties": {
                "email": {"type": "boolean"},
                "push": {"type": "boolean"}
            }
        },
        "NotificationPreferences": {
            "type": "object",
            "properties": {
                "classes": {"$ref": "#/definitions/ChannelPreference"},
                "tests": {"$ref": "#/definitions/ChannelPreference"},
                "assignments": {"$ref": "#/definitions/ChannelPreference"}
            }
        },
        "SubscribeRequest": {
            "type": "object",
            "required": ["endpoint", "keys"],
            "properties": {
                "endpoint": {"type": "string"},
                "keys": {
                    "type": "object",
                    "properties": {
                        "p256dh": {"type": "string"},
                        "auth": {"type": "string"}
                    }
                }
            }
        },
        "GenerateReportRequest": {
            "type": "object",
            "required": ["semester_id", "format"],
            "properties": {
                "semester_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf", "xlsx", "ics"]},
                "as_of": {"type": "string", "format": "date"}
            }
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
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
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
