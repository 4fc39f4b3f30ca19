package examAuth

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvAPIURL     = "EXAM_SPHERE_API_URL"
	EnvOrigin     = "EXAM_SPHERE_ORIGIN"
	EnvDevPorts   = "EXAM_SPHERE_DEV_PORTS"
	EnvAudit      = "EXAM_SPHERE_AUDIT"
	EnvMetrics    = "EXAM_SPHERE_METRICS"
	EnvCorrelator = "EXAM_SPHERE_CLIENT_RID"
)

// ConfigFromEnv returns DefaultConfig overlaid with the process environment.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win over the file.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := defaultConfig()

	if v, ok := lookup(EnvAPIURL); ok {
		cfg.Identity.BaseURLOverride = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvOrigin); ok {
		cfg.Identity.Origin = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDevPorts); ok {
		cfg.Identity.DevPorts = splitList(v)
	}
	if v, ok := lookup(EnvCorrelator); ok {
		cfg.Identity.CorrelationID = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAudit); ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvAudit, err)
		}
		cfg.Audit.Enabled = enabled
	}
	if v, ok := lookup(EnvMetrics); ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvMetrics, err)
		}
		cfg.Metrics.Enabled = enabled
		if !enabled {
			cfg.Metrics.EnableLatencyHistograms = false
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
