// Package docs bundles the OpenAPI description of the HTTP API.
package docs

import _ "embed"

//go:embed flightbooking.swagger.json
var SwaggerJSON []byte
