package routing

import (
	"net/url"
	"strings"
	"sync"
)

// Builder resolves named routes into externally reachable URLs. The base URL
// is the public address of this deployment, which may differ from the listen
// address behind a proxy.
type Builder struct {
	mu      sync.RWMutex
	baseURL string
	routes  map[string]string
}

// NewBuilder creates a builder with the given public base URL.
func NewBuilder(baseURL string) *Builder {
	return &Builder{
		baseURL: strings.TrimRight(baseURL, "/"),
		routes:  make(map[string]string),
	}
}

// Register binds a route name to its path.
func (b *Builder) Register(name, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	b.routes[name] = path
}

// Absolute returns the absolute URL for a route carrying the params as query
// parameters. Unknown routes resolve to the base URL.
func (b *Builder) Absolute(name string, params url.Values) string {
	b.mu.RLock()
	path := b.routes[name]
	b.mu.RUnlock()

	out := b.baseURL + path
	if len(params) > 0 {
		out += "?" + params.Encode()
	}
	return out
}
