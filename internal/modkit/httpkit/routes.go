package httpkit

import (
	"net/http"
	"strings"
)

// MountUnder mounts mount at prefix behind mw. A blank or "/" prefix mounts in a
// group on r itself so root level modules can still carry their own middleware
func MountUnder(r Router, prefix string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	inner := func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	}
	if p := strings.TrimSuffix(strings.TrimSpace(prefix), "/"); p != "" {
		r.Route(p, inner)
		return
	}
	r.Group(inner)
}
