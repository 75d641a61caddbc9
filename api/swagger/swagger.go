package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ScholaRise Assessment API",
        "description": "Scoring engine, grade resolution and class summaries for ScholaRise assessments",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Assessments", "description": "Scoring, validation and class summaries"},
        {"name": "Formulas", "description": "Custom component formulas"}
    ],
    "paths": {
        "/assessments/calculate": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Calculate a student's result against an ad-hoc schema",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid grade scale", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/validate": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Validate an ad-hoc schema",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateSchemaRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/summary": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Summarise an ad-hoc cohort",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SummaryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/formulas/test": {
            "post": {
                "tags": ["Formulas"],
                "summary": "Dry-run a scoring formula",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FormulaTestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}/validation": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Validate a stored schema",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}/publish": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Publish a stored schema",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Schema has validation errors", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}/students/{studentId}/result": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Calculate one student's result for a stored schema",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "gradeScaleId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}/summary": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Class summary of a stored schema",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "gradeScaleId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK; meta.cached reports a cache hit", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments/{id}/summary/export": {
            "get": {
                "tags": ["Assessments"],
                "summary": "Export the class summary",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "gradeScaleId", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}}
                }
            }
        },
        "/assessments/{id}/recalculate": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Queue persistence of every student's result",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RecalculateRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SubCriteria": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "maxScore": {"type": "number"}
            }
        },
        "Component": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "weightage": {"type": "number"},
                "rawMaxScore": {"type": "number"},
                "reducedScore": {"type": "number"},
                "formula": {"type": "string"},
                "subCriteria": {"type": "array", "items": {"$ref": "#/definitions/SubCriteria"}}
            }
        },
        "Schema": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "totalMarks": {"type": "number"},
                "components": {"type": "array", "items": {"$ref": "#/definitions/Component"}}
            }
        },
        "SubCriteriaScore": {
            "type": "object",
            "properties": {
                "subCriteriaId": {"type": "string"},
                "score": {"type": "number"}
            }
        },
        "ComponentScore": {
            "type": "object",
            "properties": {
                "componentId": {"type": "string"},
                "rawScore": {"type": "number"},
                "subCriteriaScores": {"type": "array", "items": {"$ref": "#/definitions/SubCriteriaScore"}}
            }
        },
        "GradeRange": {
            "type": "object",
            "properties": {
                "minPercentage": {"type": "number"},
                "maxPercentage": {"type": "number"},
                "grade": {"type": "string"},
                "gradePoint": {"type": "number"},
                "description": {"type": "string"}
            }
        },
        "GradeScale": {
            "type": "object",
            "properties": {
                "ranges": {"type": "array", "items": {"$ref": "#/definitions/GradeRange"}}
            }
        },
        "CalculateRequest": {
            "type": "object",
            "required": ["schema"],
            "properties": {
                "schema": {"$ref": "#/definitions/Schema"},
                "componentScores": {"type": "array", "items": {"$ref": "#/definitions/ComponentScore"}},
                "gradeScale": {"$ref": "#/definitions/GradeScale"}
            }
        },
        "ValidateSchemaRequest": {
            "type": "object",
            "required": ["schema"],
            "properties": {
                "schema": {"$ref": "#/definitions/Schema"}
            }
        },
        "StudentScores": {
            "type": "object",
            "required": ["studentId"],
            "properties": {
                "studentId": {"type": "string"},
                "componentScores": {"type": "array", "items": {"$ref": "#/definitions/ComponentScore"}}
            }
        },
        "SummaryRequest": {
            "type": "object",
            "required": ["schema"],
            "properties": {
                "schema": {"$ref": "#/definitions/Schema"},
                "students": {"type": "array", "items": {"$ref": "#/definitions/StudentScores"}},
                "gradeScale": {"$ref": "#/definitions/GradeScale"}
            }
        },
        "FormulaSubCriterion": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "maxScore": {"type": "number"},
                "score": {"type": "number"}
            }
        },
        "FormulaTestRequest": {
            "type": "object",
            "required": ["formula"],
            "properties": {
                "formula": {"type": "string", "maxLength": 500},
                "raw": {"type": "number"},
                "rawMax": {"type": "number"},
                "subCriteria": {"type": "array", "items": {"$ref": "#/definitions/FormulaSubCriterion"}}
            }
        },
        "RecalculateRequest": {
            "type": "object",
            "properties": {
                "gradeScaleId": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
