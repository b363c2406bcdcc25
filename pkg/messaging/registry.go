package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/condokit/pkg/logger"
)

// Registry is the closed set of provider adapters, keyed by name.
// Each registered provider is guarded by its own circuit breaker.
type Registry struct {
	mu        sync.RWMutex
	providers map[Name]*guarded

	failureThreshold int
	recoveryTimeout  time.Duration
	logger           *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	client           *http.Client
	timeout          time.Duration
	failureThreshold int
	recoveryTimeout  time.Duration
	logger           *slog.Logger
}

// WithHTTPClient sets the HTTP client shared by the built-in adapters.
func WithHTTPClient(client *http.Client) RegistryOption {
	return func(o *registryOptions) {
		if client != nil {
			o.client = client
		}
	}
}

// WithTimeout sets the per-request timeout of the built-in adapters.
func WithTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithCircuitBreaker configures the per-provider breaker.
func WithCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.failureThreshold = failureThreshold
		o.recoveryTimeout = recoveryTimeout
	}
}

// WithLogger sets the logger that reports breaker transitions.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(o *registryOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []RegistryOption) registryOptions {
	o := registryOptions{
		timeout:          DefaultTimeout,
		failureThreshold: 5,
		recoveryTimeout:  30 * time.Second,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewRegistry creates a registry with the given providers and no others.
func NewRegistry(providers []Provider, opts ...RegistryOption) (*Registry, error) {
	o := buildOptions(opts)
	r := &Registry{
		providers:        make(map[Name]*guarded, len(providers)),
		failureThreshold: o.failureThreshold,
		recoveryTimeout:  o.recoveryTimeout,
		logger:           o.logger,
	}
	for _, p := range providers {
		if err := r.register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewDefaultRegistry registers the four built-in adapters.
func NewDefaultRegistry(opts ...RegistryOption) *Registry {
	o := buildOptions(opts)
	t := newTransport(o.client, o.timeout)
	r, err := NewRegistry([]Provider{
		newWhatsGW(t),
		newZAPI(t),
		newEvolution(t),
		newWPPConnect(t),
	}, opts...)
	if err != nil {
		// built-in names are distinct
		panic(err)
	}
	return r
}

func (r *Registry) register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name())
	}
	r.providers[p.Name()] = &guarded{
		Provider: p,
		breaker:  NewBreaker(p.Name(), r.failureThreshold, r.recoveryTimeout, OnStateChange(r.logTransition)),
	}
	return nil
}

func (r *Registry) logTransition(provider Name, from, to CircuitState) {
	level := slog.LevelInfo
	if to == CircuitOpen {
		level = slog.LevelWarn
	}
	r.logger.LogAttrs(context.Background(), level, "provider circuit "+to.String(),
		logger.Provider(string(provider)),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// Get resolves a provider by name.
func (r *Registry) Get(name Name) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}

// BreakerState reports the circuit state of a provider.
func (r *Registry) BreakerState(name Name) (CircuitState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return CircuitClosed, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p.breaker.State(), nil
}

// guarded wraps a provider with config validation, panic safety and a breaker.
type guarded struct {
	Provider
	breaker *Breaker
}

func (g *guarded) SendMessage(ctx context.Context, phone, message string, cfg Config) (res Result) {
	if err := cfg.Validate(); err != nil {
		return failed(err)
	}
	if !g.breaker.Allow() {
		return failed(fmt.Errorf("%w: %s", ErrCircuitOpen, g.Name()))
	}

	defer func() {
		if r := recover(); r != nil {
			res = failed(fmt.Errorf("%w: provider panicked: %v", ErrTransport, r))
			g.breaker.RecordFailure()
		}
	}()

	res = g.Provider.SendMessage(ctx, phone, message, cfg)
	if res.Temporary {
		g.breaker.RecordFailure()
	} else {
		g.breaker.RecordSuccess()
	}
	return res
}
