package httpkit

import (
	"net/http"
	"strings"
)

// APIV1 is the only published API version
const APIV1 = "v1"

// MountAPI mounts a subrouter under /api/{version}
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	v := strings.Trim(strings.TrimSpace(version), "/")
	if v == "" {
		v = APIV1
	}
	MountUnder(r, "/api/"+v, mw, mount)
}

// MountAPIV1 is MountAPI for APIV1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, APIV1, mw, mount)
}
