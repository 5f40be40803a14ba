// Package dimension resolves the pixel size of embedded images.
package dimension

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/resource"
)

// ErrInvalidResourceID is returned for resource sources that are not 32 lowercase hex characters.
var ErrInvalidResourceID = errors.New("invalid resource id")

// FallbackStrategy names resolutions that used FallbackDimensions.
const FallbackStrategy = "fallback"

// Resolution is the outcome of a dimension lookup.
type Resolution struct {
	Dimensions ir.PixelDimensions
	// Strategy names the strategy that produced Dimensions.
	Strategy string
	// Fallback is set when every resource strategy failed.
	Fallback bool
	// Cause joins the strategy errors behind a fallback.
	Cause error
}

// Resolver runs resource strategies in registration order and probes
// external URLs directly.
type Resolver struct {
	mu         sync.RWMutex
	strategies []Strategy
	external   Strategy
	fallback   ir.PixelDimensions
	log        *zap.Logger
}

// NewResolver creates a resolver with no resource strategies.
func NewResolver(external Strategy, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		external: external,
		fallback: FallbackDimensions,
		log:      log,
	}
}

// NewDefaultResolver wires the file and data URI strategies over store.
func NewDefaultResolver(store resource.Store, probe ProbeConfig, log *zap.Logger) *Resolver {
	r := NewResolver(NewExternalProbe(probe, log), log)
	// registration of distinct built-ins cannot fail
	_ = r.Register(NewFileStrategy(store, probe.Timeout))
	_ = r.Register(NewDataURIStrategy(StorePayloads{Store: store}, probe.Timeout))
	return r
}

// Register appends a resource strategy to the chain.
func (r *Resolver) Register(s Strategy) error {
	if s == nil {
		return fmt.Errorf("cannot register nil strategy")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.strategies {
		if existing.Name() == name {
			return fmt.Errorf("strategy already registered: %s", name)
		}
	}
	r.strategies = append(r.strategies, s)
	return nil
}

// Strategies returns the resource strategy names in the order they run.
func (r *Resolver) Strategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// SetFallback changes the dimensions used when every strategy fails.
func (r *Resolver) SetFallback(d ir.PixelDimensions) error {
	if !d.Valid() {
		return fmt.Errorf("%w: fallback %s", ErrInvalidDimensions, d)
	}
	r.mu.Lock()
	r.fallback = d
	r.mu.Unlock()
	return nil
}

// Resolve measures the image ref points at.
func (r *Resolver) Resolve(ctx context.Context, ref *ir.ImageReference) (Resolution, error) {
	if ref == nil {
		return Resolution{}, fmt.Errorf("nil image reference")
	}
	if ref.SourceKind == ir.SourceExternal {
		return r.ResolveExternal(ctx, ref.Source)
	}
	return r.ResolveResource(ctx, ref.Source)
}

// ResolveResource measures a resource image. For a valid id it never fails:
// when no strategy succeeds the fallback size is returned with Fallback set.
func (r *Resolver) ResolveResource(ctx context.Context, id string) (Resolution, error) {
	if !ir.IsResourceID(id) {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidResourceID, id)
	}

	r.mu.RLock()
	strategies := append([]Strategy(nil), r.strategies...)
	fallback := r.fallback
	r.mu.RUnlock()

	var errs []error
	for _, s := range strategies {
		d, err := s.Measure(ctx, id)
		if err == nil && !d.Valid() {
			err = fmt.Errorf("%w: %s", ErrInvalidDimensions, d)
		}
		if err != nil {
			r.log.Debug("dimension strategy failed",
				zap.String("strategy", s.Name()),
				zap.String("id", id),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		return Resolution{Dimensions: d, Strategy: s.Name()}, nil
	}

	cause := errors.Join(errs...)
	if cause == nil {
		cause = errors.New("no dimension strategies registered")
	}
	r.log.Warn("using fallback dimensions",
		zap.String("id", id),
		zap.Stringer("size", fallback),
		zap.Error(cause))
	return Resolution{
		Dimensions: fallback,
		Strategy:   FallbackStrategy,
		Fallback:   true,
		Cause:      cause,
	}, nil
}

// ResolveExternal measures a remote image. Failures are returned as errors.
func (r *Resolver) ResolveExternal(ctx context.Context, rawURL string) (Resolution, error) {
	if r.external == nil {
		return Resolution{}, fmt.Errorf("no external probe configured")
	}
	d, err := r.external.Measure(ctx, rawURL)
	if err != nil {
		return Resolution{}, err
	}
	if !d.Valid() {
		return Resolution{}, fmt.Errorf("%w: %s", ErrInvalidDimensions, d)
	}
	return Resolution{Dimensions: d, Strategy: r.external.Name()}, nil
}
