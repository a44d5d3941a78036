// Package openapi embeds the OpenAPI 3.0 specification for the scanapi HTTP API.
// The YAML document is the source; the JSON form is derived from it at init.
package openapi

import (
	_ "embed"

	"github.com/goccy/go-yaml"
)

// SpecYAML contains the OpenAPI 3.0 specification in YAML format.
// Served at: GET /api/v1/openapi.yaml
//
//go:embed openapi.yaml
var SpecYAML []byte

// SpecJSON contains the OpenAPI 3.0 specification in JSON format.
// Served at: GET /api/v1/openapi.json
var SpecJSON []byte

func init() {
	b, err := yaml.YAMLToJSON(SpecYAML)
	if err != nil {
		panic("openapi: embedded spec is not valid YAML: " + err.Error())
	}
	SpecJSON = b
}
