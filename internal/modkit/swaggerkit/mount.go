// Package swaggerkit serves the embedded OpenAPI document and the Swagger UI over it
package swaggerkit

import (
	"net/http"
	"strings"

	phttp "arguxai/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// DefaultBase is where the UI lives when Options.Base is empty
const DefaultBase = "/api/docs"

// Options for Mount
type Options struct {
	Enabled bool
	// Base is the UI mount point, DefaultBase when empty
	Base string
	// Mutators run on every doc.json request, in order
	Mutators []SpecMutator
}

// Mount registers <base>, <base>/doc.json and the UI assets when enabled
func Mount(r phttp.Router, o Options) {
	if !o.Enabled {
		return
	}
	base := strings.TrimSuffix(o.Base, "/")
	if base == "" {
		base = DefaultBase
	}
	docURL := base + "/doc.json"

	r.Get(base, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, base+"/", http.StatusPermanentRedirect)
	})
	r.Get(docURL, serveDocJSON(o.Mutators...))
	r.Handle(base+"/*", httpSwagger.Handler(
		httpSwagger.URL(docURL),
		httpSwagger.InstanceName("arguxai"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DeepLinking(true),
	))
}
