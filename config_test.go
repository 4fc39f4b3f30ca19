package examAuth

import (
	"errors"
	"testing"

	"github.com/MrEthical07/examAuth/identity"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Identity.DefaultBaseURL != identity.DefaultBaseURL {
		t.Fatalf("unexpected default base url %q", cfg.Identity.DefaultBaseURL)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"override without scheme": func(c *Config) { c.Identity.BaseURLOverride = "example.com" },
		"ftp default":             func(c *Config) { c.Identity.DefaultBaseURL = "ftp://example.com" },
		"empty dev port":          func(c *Config) { c.Identity.DevPorts = []string{"3000", " "} },
		"short correlation id":    func(c *Config) { c.Identity.CorrelationID = "abc" },
		"negative audit buffer":   func(c *Config) { c.Audit.BufferSize = -1 },
		"enabled audit no buffer": func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
		"histograms without metrics": func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = true
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrConfigInvalid) {
				t.Fatalf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}

func TestCloneConfigCopiesDevPorts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Identity.DevPorts = []string{"3000", "5173"}
	out := cloneConfig(cfg)
	out.Identity.DevPorts[0] = "9999"
	if cfg.Identity.DevPorts[0] != "3000" {
		t.Fatal("clone shares the dev port slice")
	}
}

func TestConfigFromLookup(t *testing.T) {
	env := map[string]string{
		EnvAPIURL:   "https://api.example/",
		EnvOrigin:   "http://localhost:5173",
		EnvDevPorts: "5173, 3000,",
		EnvAudit:    "true",
		EnvMetrics:  "false",
	}
	cfg, err := configFromLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("configFromLookup: %v", err)
	}
	if cfg.Identity.BaseURLOverride != "https://api.example/" {
		t.Fatalf("unexpected override %q", cfg.Identity.BaseURLOverride)
	}
	if len(cfg.Identity.DevPorts) != 2 || cfg.Identity.DevPorts[0] != "5173" {
		t.Fatalf("unexpected dev ports %v", cfg.Identity.DevPorts)
	}
	if !cfg.Audit.Enabled || cfg.Metrics.Enabled {
		t.Fatalf("unexpected toggles %+v %+v", cfg.Audit, cfg.Metrics)
	}
	if got := cfg.Identity.resolver().Resolve(); got != "https://api.example" {
		t.Fatalf("override must win, got %q", got)
	}
}

func TestConfigFromLookupBadBool(t *testing.T) {
	_, err := configFromLookup(func(k string) (string, bool) {
		if k == EnvAudit {
			return "maybe", true
		}
		return "", false
	})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigFromEnvUsesProcessEnvironment(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://localhost:8080")
	t.Setenv(EnvMetrics, "true")
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Identity.BaseURLOverride != "http://localhost:8080" {
		t.Fatalf("unexpected override %q", cfg.Identity.BaseURLOverride)
	}
}
