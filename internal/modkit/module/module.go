// Package module defines the minimal contract for a modkit module and the bootstrap port registry
package module

import (
	phttp "arguxai/internal/platform/net/http"
)

// Module is what the API composition root mounts
// sibling of modkit to avoid import knots when a module also exports its own ports type
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
