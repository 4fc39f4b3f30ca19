package examAuth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// captchaTracker requests challenges and remembers the id of the last one.
// Only the most recent id is kept; a new request replaces it.
type captchaTracker struct {
	transport Transport
	metrics   *Metrics

	mu     sync.Mutex
	lastID string
}

func newCaptchaTracker(t Transport, m *Metrics) *captchaTracker {
	return &captchaTracker{transport: t, metrics: m}
}

func (c *captchaTracker) request(ctx context.Context, correlationID string) (*CaptchaChallenge, error) {
	start := time.Now()
	ch, err := c.transport.GenerateCaptcha(ctx, correlationID)
	c.metrics.Observe(MetricRemoteLatency, time.Since(start))
	if err != nil {
		c.metrics.Inc(MetricCaptchaUnavailable)
		err = classifyRemote("generate captcha", err)
		if errors.Is(err, ErrProtocolViolation) {
			return nil, fmt.Errorf("%w: %w", ErrChallengeUnavailable, err)
		}
		return nil, err
	}
	if ch == nil || ch.ID == "" || ch.Image == "" {
		c.metrics.Inc(MetricCaptchaUnavailable)
		return nil, ErrChallengeUnavailable
	}

	c.mu.Lock()
	c.lastID = ch.ID
	c.mu.Unlock()

	c.metrics.Inc(MetricCaptchaIssued)
	out := *ch
	return &out, nil
}

func (c *captchaTracker) last() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID, c.lastID != ""
}

// RequestCaptcha asks the platform for a new challenge bound to this
// client's correlation id and remembers its id for the next Login.
//
// A transport success without both an id and an image yields
// ErrChallengeUnavailable and leaves the remembered id unchanged.
func (m *SessionManager) RequestCaptcha(ctx context.Context) (*CaptchaChallenge, error) {
	return m.captcha.request(ctx, m.identity.CorrelationID())
}

// LastCaptchaID returns the id of the most recently issued challenge.
func (m *SessionManager) LastCaptchaID() (string, bool) {
	return m.captcha.last()
}
