package examAuth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MrEthical07/examAuth/identity"
)

// Config holds the session manager's tunables.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Identity IdentityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
IDENTITY CONFIG
====================================
*/

// IdentityConfig feeds base-address resolution. See identity.Resolver.
type IdentityConfig struct {
	// BaseURLOverride wins over everything else when set.
	BaseURLOverride string
	// Origin is the embedding runtime's serving origin, if any.
	Origin string
	// DevPorts are origin ports that mark a local development server.
	DevPorts []string
	// DefaultBaseURL is used when neither override nor origin applies.
	DefaultBaseURL string
	// CorrelationID pins the per-process correlation id. Empty generates one.
	CorrelationID string
}

func (c IdentityConfig) resolver() identity.Resolver {
	return identity.Resolver{
		Override: c.BaseURLOverride,
		Origin:   c.Origin,
		DevPorts: c.DevPorts,
		Default:  c.DefaultBaseURL,
	}
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Identity: IdentityConfig{
			DevPorts:       append([]string(nil), identity.DefaultDevPorts...),
			DefaultBaseURL: identity.DefaultBaseURL,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Identity.DevPorts != nil {
		out.Identity.DevPorts = append([]string{}, cfg.Identity.DevPorts...)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found, wrapped in
// ErrConfigInvalid.
func (c *Config) Validate() error {
	if c.Identity.BaseURLOverride != "" {
		if err := validateBaseURL(c.Identity.BaseURLOverride); err != nil {
			return fmt.Errorf("%w: Identity.BaseURLOverride: %v", ErrConfigInvalid, err)
		}
	}
	if c.Identity.DefaultBaseURL != "" {
		if err := validateBaseURL(c.Identity.DefaultBaseURL); err != nil {
			return fmt.Errorf("%w: Identity.DefaultBaseURL: %v", ErrConfigInvalid, err)
		}
	}
	for _, port := range c.Identity.DevPorts {
		if strings.TrimSpace(port) == "" {
			return fmt.Errorf("%w: Identity.DevPorts contains an empty entry", ErrConfigInvalid)
		}
	}
	if c.Identity.CorrelationID != "" && !identity.ValidCorrelationID(c.Identity.CorrelationID) {
		return fmt.Errorf("%w: Identity.CorrelationID must be %d-%d alphanumeric characters",
			ErrConfigInvalid, identity.MinCorrelationIDLength, identity.MaxCorrelationIDLength)
	}

	if c.Audit.BufferSize < 0 {
		return fmt.Errorf("%w: Audit.BufferSize must be >= 0", ErrConfigInvalid)
	}
	if c.Audit.Enabled && c.Audit.BufferSize == 0 {
		return fmt.Errorf("%w: Audit.BufferSize must be > 0 when audit is enabled", ErrConfigInvalid)
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: Metrics.EnableLatencyHistograms requires Metrics.Enabled", ErrConfigInvalid)
	}

	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
