package dimension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/ir"
)

// ErrUnsupportedScheme is returned for external sources that are not http or https URLs.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

const (
	// DefaultProbeTimeout is the default external probe timeout.
	DefaultProbeTimeout = 10 * time.Second
	// DefaultUserAgent is sent with external probes.
	DefaultUserAgent = "mdimg"
)

// ProbeConfig holds the configuration for the external probe.
type ProbeConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// ExternalProbe loads remote images anonymously and reads their size.
type ExternalProbe struct {
	client  *resty.Client
	timeout time.Duration
	log     *zap.Logger
}

// NewExternalProbe creates a probe. Requests carry no cookies and no referrer.
func NewExternalProbe(cfg ProbeConfig, log *zap.Logger) *ExternalProbe {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	client := resty.New().
		SetCookieJar(nil).
		SetTimeout(timeout).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "image/*").
		SetLogger(log.Sugar()).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			req.Header.Del("Referer")
			return nil
		}))

	return &ExternalProbe{
		client:  client,
		timeout: timeout,
		log:     log,
	}
}

// Name implements Strategy.
func (p *ExternalProbe) Name() string { return "external" }

// Measure fetches rawURL and decodes the image header. Only the header bytes
// are read before the body is closed.
func (p *ExternalProbe) Measure(ctx context.Context, rawURL string) (ir.PixelDimensions, error) {
	if err := checkScheme(rawURL); err != nil {
		return ir.PixelDimensions{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ir.PixelDimensions{}, fmt.Errorf("image load timed out after %s: %w", p.timeout, ctx.Err())
		}
		return ir.PixelDimensions{}, fmt.Errorf("failed to load image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return ir.PixelDimensions{}, fmt.Errorf("failed to load image: HTTP %d", resp.StatusCode())
	}

	d, err := decodeDimensions(body)
	if err != nil {
		return ir.PixelDimensions{}, err
	}
	p.log.Debug("external image measured",
		zap.String("url", rawURL),
		zap.Stringer("size", d),
		zap.Duration("elapsed", time.Since(start)))
	return d, nil
}

// MaxFetchSize caps the bytes Fetch reads from a remote image.
const MaxFetchSize = 64 << 20

// Fetch downloads the whole remote image.
func (p *ExternalProbe) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := checkScheme(rawURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("failed to load image: HTTP %d", resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxFetchSize {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxFetchSize)
	}
	return data, nil
}

func checkScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedScheme, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrUnsupportedScheme, rawURL)
	}
	return nil
}
