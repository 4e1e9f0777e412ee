// Package router groups the HTTP routes of each business area and mounts
// them under a versioned API prefix.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router mounts domain groups under /api/<version>
type Router struct {
	engine  *gin.Engine
	version string
	chain   []gin.HandlerFunc
	groups  []*DomainGroup
}

// Option configures a Router
type Option func(*Router)

// Version replaces the default "v1" path segment
func Version(v string) Option {
	return func(r *Router) { r.version = v }
}

func New(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use appends middleware to the API prefix. Routes registered directly on
// the engine, such as the probes, never see it.
func (r *Router) Use(handlers ...gin.HandlerFunc) *Router {
	r.chain = append(r.chain, handlers...)
	return r
}

// Register queues groups for Setup
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup mounts the queued groups and returns how many routes it added
func (r *Router) Setup() int {
	api := r.engine.Group("/api/"+r.version, r.chain...)
	mounted := 0
	for _, g := range r.groups {
		mounted += g.mount(api)
	}
	return mounted
}

type route struct {
	method string
	path   string
	chain  []gin.HandlerFunc
}

// DomainGroup is the route table of one business area. Nested groups
// inherit its prefix and middleware.
type DomainGroup struct {
	name   string
	prefix string
	chain  []gin.HandlerFunc
	routes []route
	nested []*DomainGroup
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use appends middleware run before every route of the group
func (g *DomainGroup) Use(handlers ...gin.HandlerFunc) *DomainGroup {
	g.chain = append(g.chain, handlers...)
	return g
}

// Handle adds a route; the last handler is the endpoint
func (g *DomainGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: path, chain: handlers})
	return g
}

func (g *DomainGroup) GET(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodGet, path, h...)
}

func (g *DomainGroup) POST(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPost, path, h...)
}

func (g *DomainGroup) PUT(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPut, path, h...)
}

func (g *DomainGroup) PATCH(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPatch, path, h...)
}

func (g *DomainGroup) DELETE(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodDelete, path, h...)
}

// Group nests a group under this one and returns it
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	g.nested = append(g.nested, child)
	return child
}

func (g *DomainGroup) Name() string { return g.name }

// Size counts the routes of the group and of its nested groups
func (g *DomainGroup) Size() int {
	n := len(g.routes)
	for _, child := range g.nested {
		n += child.Size()
	}
	return n
}

func (g *DomainGroup) mount(parent *gin.RouterGroup) int {
	rg := parent.Group(g.prefix, g.chain...)
	for _, rt := range g.routes {
		rg.Handle(rt.method, rt.path, rt.chain...)
	}
	n := len(g.routes)
	for _, child := range g.nested {
		n += child.mount(rg)
	}
	return n
}
