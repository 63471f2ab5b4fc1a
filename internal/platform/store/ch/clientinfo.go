package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo describes this process in system.query_log
// role is the binary role, e.g. "api" or "detect"
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()

	type kv = struct{ Name, Version string }
	products := []kv{{Name: "arguxai", Version: strings.TrimSpace(tag)}}
	for _, p := range []kv{
		{Name: "role", Version: role},
		{Name: "go", Version: runtime.Version()},
		{Name: "commit", Version: shortRevision()},
		{Name: "host", Version: host},
	} {
		if v := strings.TrimSpace(p.Version); v != "" {
			products = append(products, kv{Name: p.Name, Version: v})
		}
	}
	return clickhouse.ClientInfo{Products: products}
}

func shortRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return "unknown"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return "unknown"
}
