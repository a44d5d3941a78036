package validation

const (
	createSchemaURL = "https://scanapi.local/schemas/endpoint-create.json"
	updateSchemaURL = "https://scanapi.local/schemas/endpoint-update.json"
)

// createSchemaJSON describes the body of a create request. "password" is
// accepted in place of "secret".
const createSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://scanapi.local/schemas/endpoint-create.json",
  "type": "object",
  "required": ["name", "url"],
  "properties": {
    "name": { "type": "string", "minLength": 1, "maxLength": 255 },
    "url": { "type": "string", "minLength": 1, "maxLength": 4096 },
    "secret": { "type": "string", "minLength": 1 },
    "password": { "type": "string", "minLength": 1 }
  },
  "anyOf": [
    { "required": ["secret"] },
    { "required": ["password"] }
  ]
}`

// updateSchemaJSON describes a partial update; every field is optional.
const updateSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://scanapi.local/schemas/endpoint-update.json",
  "type": "object",
  "properties": {
    "name": { "type": "string", "minLength": 1, "maxLength": 255 },
    "url": { "type": "string", "minLength": 1, "maxLength": 4096 },
    "secret": { "type": "string", "minLength": 1 },
    "password": { "type": "string", "minLength": 1 }
  }
}`
