package swaggerkit

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"

	"arguxai/internal/platform/config"
)

//go:embed openapi.json
var openapiDoc string

// SpecMutator tweaks the parsed document before it is served, after the shared fixups
type SpecMutator func(map[string]any)

// docReader is a seam so tests can inject invalid JSON
var docReader = func() string { return openapiDoc }

// serveDocJSON serves the embedded document with the shared error responses filled in
func serveDocJSON(mutators ...SpecMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, "/api/v1")
		if v := config.New().Prefix("CORE_API_").MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
			if info, ok := spec["info"].(map[string]any); ok {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + v
				}
			}
		}
		ensureErrorResponseDefinition(spec)
		addDefaultResponse(spec, "400", errorResponse("Bad Request", 400, "events: must contain at least 1 item"))
		addDefaultResponse(spec, "500", errorResponse("Internal Server Error", 500, "panic recovered"))
		for _, m := range mutators {
			if m != nil {
				m(spec)
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers pins the document to OAS 3.0.3 (the UI cannot render 3.1) and sets servers
func ensureServers(spec map[string]any, url string) {
	if _, hasSwagger := spec["swagger"]; hasSwagger {
		delete(spec, "swagger")
	}
	if v, ok := spec["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

// ensureErrorResponseDefinition adds the error envelope schema, mirroring phttp.Envelope
func ensureErrorResponseDefinition(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemas, ok := comps["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		comps["schemas"] = schemas
	}
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Standard error response",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

func errorResponse(desc string, status int, msg string) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": status,
					"status":      desc,
					"error":       msg,
					"request_id":  "arguxai/abc-000001",
				},
			},
		},
	}
}

// addDefaultResponse injects resp under code into every operation that lacks one
func addDefaultResponse(spec map[string]any, code string, resp map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses, ok := op["responses"].(map[string]any)
			if !ok {
				responses = map[string]any{}
				op["responses"] = responses
			}
			if _, exists := responses[code]; !exists {
				responses[code] = resp
			}
		}
	}
}

// AppendDescription returns a mutator adding a paragraph to info.description
func AppendDescription(text string) SpecMutator {
	return func(spec map[string]any) {
		info, ok := spec["info"].(map[string]any)
		if !ok || strings.TrimSpace(text) == "" {
			return
		}
		if d, _ := info["description"].(string); d != "" {
			info["description"] = d + "\n\n" + text
			return
		}
		info["description"] = text
	}
}
