package identity

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is used when neither an override nor a usable origin is configured.
const DefaultBaseURL = "https://aliwoto.is-a.dev:8080"

// DefaultDevPorts lists origin ports treated as a local development server whose origin
// must not be used as the API address.
var DefaultDevPorts = []string{"3000"}

// Resolver holds the inputs of base-address resolution.
type Resolver struct {
	// Override is an explicit address from process configuration. Highest precedence.
	Override string
	// Origin is the embedding runtime's own serving origin, if any.
	Origin string
	// DevPorts are origin ports that disqualify Origin. Nil means DefaultDevPorts.
	DevPorts []string
	// Default is the fallback address. Empty means DefaultBaseURL.
	Default string
}

// Resolve returns the remote base address without trailing slashes.
func (r Resolver) Resolve() string {
	if v := strings.TrimSpace(r.Override); v != "" {
		return trimTrailingSlashes(v)
	}

	if origin := strings.TrimSpace(r.Origin); origin != "" && !r.isDevOrigin(origin) {
		return trimTrailingSlashes(origin)
	}

	if v := strings.TrimSpace(r.Default); v != "" {
		return trimTrailingSlashes(v)
	}
	return DefaultBaseURL
}

func (r Resolver) isDevOrigin(origin string) bool {
	ports := r.DevPorts
	if ports == nil {
		ports = DefaultDevPorts
	}
	if len(ports) == 0 {
		return false
	}

	trimmed := trimTrailingSlashes(origin)
	port := ""
	if u, err := url.Parse(trimmed); err == nil {
		port = u.Port()
	}

	for _, p := range ports {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if port == p {
			return true
		}
		// origins without a scheme do not parse a port
		if port == "" && strings.HasSuffix(trimmed, ":"+p) {
			return true
		}
	}
	return false
}

func trimTrailingSlashes(s string) string {
	return strings.TrimRight(s, "/")
}
