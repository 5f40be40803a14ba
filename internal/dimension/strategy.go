package dimension

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/resource"
)

// DefaultStrategyTimeout bounds a single measurement attempt.
const DefaultStrategyTimeout = 10 * time.Second

// Strategy measures an image identified by key. Resource strategies receive
// a resource id, the external probe receives a URL.
type Strategy interface {
	Name() string
	Measure(ctx context.Context, key string) (ir.PixelDimensions, error)
}

// PayloadSource reports resource content in any supported payload shape.
type PayloadSource interface {
	Payload(ctx context.Context, id string) (Payload, error)
}

// StorePayloads adapts a resource.Store into a PayloadSource.
type StorePayloads struct {
	Store resource.Store
}

// Payload implements PayloadSource.
func (s StorePayloads) Payload(ctx context.Context, id string) (Payload, error) {
	data, err := s.Store.Bytes(ctx, id)
	if err != nil {
		return Payload{}, err
	}
	return BufferPayload(data), nil
}

// StaticPayload serves one payload for every id.
type StaticPayload struct {
	Value Payload
}

// Payload implements PayloadSource.
func (s StaticPayload) Payload(ctx context.Context, id string) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	return s.Value, nil
}

// FileStrategy decodes the image header from the resource's local file.
type FileStrategy struct {
	store   resource.Store
	timeout time.Duration
}

// NewFileStrategy creates a file strategy. A zero timeout uses DefaultStrategyTimeout.
func NewFileStrategy(store resource.Store, timeout time.Duration) *FileStrategy {
	if timeout <= 0 {
		timeout = DefaultStrategyTimeout
	}
	return &FileStrategy{store: store, timeout: timeout}
}

// Name implements Strategy.
func (s *FileStrategy) Name() string { return "file" }

// Measure implements Strategy.
func (s *FileStrategy) Measure(ctx context.Context, id string) (ir.PixelDimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	path, err := s.store.Path(ctx, id)
	if err != nil {
		return ir.PixelDimensions{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return ir.PixelDimensions{}, fmt.Errorf("failed to open resource file: %w", err)
	}
	defer f.Close()

	// closing f on timeout unblocks the pending read
	return await(ctx, func() { f.Close() }, func() (ir.PixelDimensions, error) {
		return decodeDimensions(f)
	})
}

// DataURIStrategy rebuilds the resource as a data URI and decodes that.
type DataURIStrategy struct {
	source  PayloadSource
	timeout time.Duration
}

// NewDataURIStrategy creates a data URI strategy. A zero timeout uses DefaultStrategyTimeout.
func NewDataURIStrategy(source PayloadSource, timeout time.Duration) *DataURIStrategy {
	if timeout <= 0 {
		timeout = DefaultStrategyTimeout
	}
	return &DataURIStrategy{source: source, timeout: timeout}
}

// Name implements Strategy.
func (s *DataURIStrategy) Name() string { return "data-uri" }

// Measure implements Strategy.
func (s *DataURIStrategy) Measure(ctx context.Context, id string) (ir.PixelDimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.source.Payload(ctx, id)
	if err != nil {
		return ir.PixelDimensions{}, err
	}
	data, err := p.Bytes()
	if err != nil {
		return ir.PixelDimensions{}, err
	}
	if len(data) == 0 {
		return ir.PixelDimensions{}, fmt.Errorf("resource %s is empty", id)
	}

	return await(ctx, nil, func() (ir.PixelDimensions, error) {
		return measureDataURI(EncodeDataURI(data))
	})
}

// await runs fn until it finishes or ctx is done. abort, if set, is called
// on cancellation so fn can return early.
func await(ctx context.Context, abort func(), fn func() (ir.PixelDimensions, error)) (ir.PixelDimensions, error) {
	type result struct {
		dims ir.PixelDimensions
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		d, err := fn()
		ch <- result{d, err}
	}()

	select {
	case r := <-ch:
		return r.dims, r.err
	case <-ctx.Done():
		if abort != nil {
			abort()
		}
		return ir.PixelDimensions{}, fmt.Errorf("measurement abandoned: %w", ctx.Err())
	}
}
