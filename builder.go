package examAuth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MrEthical07/examAuth/identity"
	"github.com/MrEthical07/examAuth/permission"
	"github.com/MrEthical07/examAuth/session"
)

// Builder assembles a SessionManager.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	transport Transport
	store     session.Store
	policy    *permission.Policy
	identity  *identity.Identity
	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithTransport sets the remote platform client. Required.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithStore sets the session store. Defaults to a session.MemoryStore.
func (b *Builder) WithStore(s session.Store) *Builder {
	b.store = s
	return b
}

// WithPolicy replaces permission.DefaultPolicy.
func (b *Builder) WithPolicy(p *permission.Policy) *Builder {
	b.policy = p
	return b
}

// WithIdentity supplies a pre-resolved identity instead of resolving one
// from Config.Identity.
func (b *Builder) WithIdentity(id *identity.Identity) *Builder {
	b.identity = id
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, resolves the client identity and
// restores any persisted token pair from the store.
//
// A store that fails to load is a Build error. A partially persisted pair is
// ignored with a warning and the manager starts anonymous. A Builder can be
// built once.
func (b *Builder) Build(ctx context.Context) (*SessionManager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.transport == nil {
		return nil, fmt.Errorf("%w: transport required", ErrManagerNotReady)
	}

	store := b.store
	if store == nil {
		store = session.NewMemoryStore()
	}

	policy := b.policy
	if policy == nil {
		policy = permission.DefaultPolicy()
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	id := b.identity
	if id == nil {
		id = identity.NewWithCorrelationID(cfg.Identity.resolver(), cfg.Identity.CorrelationID)
	}

	m := &SessionManager{
		config:    cfg,
		identity:  id,
		transport: b.transport,
		store:     store,
		policy:    policy,
		logger:    logger.Named("examauth"),
		metrics:   NewMetrics(cfg.Metrics),
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
	}
	m.captcha = newCaptchaTracker(m.transport, m.metrics)

	if setter, ok := m.transport.(BaseURLSetter); ok {
		setter.SetBaseURL(id.BasePath())
	}

	if err := m.hydrate(ctx); err != nil {
		_ = m.audit.Close(ctx)
		return nil, err
	}

	b.built = true
	return m, nil
}
