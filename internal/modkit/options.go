package modkit

import (
	"net/http"

	"arguxai/internal/modkit/httpkit"
	pstrings "arguxai/internal/platform/strings"
)

// Option mutates build configuration for a module
type Option func(*buildCfg)

type buildCfg struct {
	name     string
	prefix   string
	mw       []func(http.Handler) http.Handler
	ports    any
	register []func(httpkit.Router)
}

// WithName sets a module name used in logs and the registry
func WithName(name string) Option {
	return func(c *buildCfg) { c.name = name }
}

// WithPrefix mounts a module under a path prefix
func WithPrefix(prefix string) Option {
	return func(c *buildCfg) { c.prefix = prefix }
}

// WithMiddlewares attaches per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *buildCfg) { c.mw = append(c.mw, mw...) }
}

// WithPorts injects ports owned by another module; the concrete type belongs to the importing module
func WithPorts[T any](p T) Option {
	return func(c *buildCfg) { c.ports = p }
}

// WithRegister adds extra endpoints next to the module's own
func WithRegister(fn func(httpkit.Router)) Option {
	return func(c *buildCfg) { c.register = append(c.register, fn) }
}

// Built is the resolved option set
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any

	extra []func(httpkit.Router)
}

// Build applies defaults first and then opts, so callers override module defaults
func Build(defaults []Option, opts ...Option) Built {
	var c buildCfg
	for _, o := range append(append([]Option(nil), defaults...), opts...) {
		o(&c)
	}
	return Built{
		Name:   c.name,
		Prefix: c.prefix,
		Mw:     append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:  c.ports,
		extra:  c.register,
	}
}

// Mount registers own plus any WithRegister extras under Prefix with the module middleware
func (b Built) Mount(r httpkit.Router, own func(httpkit.Router)) {
	if b.Prefix == "" {
		return
	}
	httpkit.MountUnder(r, pstrings.MustPrefix(b.Prefix), b.Mw, func(sub httpkit.Router) {
		if own != nil {
			own(sub)
		}
		for _, fn := range b.extra {
			fn(sub)
		}
	})
}
