package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/vision-relay/internal/domain/analysis"
	"github.com/bryanwahyu/vision-relay/internal/domain/images"
)

// ColorPrefix is prepended to the endpoint's color summary.
const ColorPrefix = "Color analysis:\n"

// Client talks to a remote image-analysis endpoint exposing the four named
// capabilities. The endpoint is fixed at construction; Connect must succeed
// before any analysis call is issued. A failed call never changes the
// connection state, and there is no retry: callers retry by calling again.
//
// The client holds one shared connection handle and is not safe for
// concurrent use without external synchronization.
type Client struct {
	endpoint string
	state    analysis.ConnState
	call     caller
}

// New builds a client for the given endpoint. Trailing separators are
// normalized away; no connection is attempted yet.
func New(endpoint string, timeout time.Duration) *Client {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	return &Client{
		endpoint: endpoint,
		state:    analysis.StateDisconnected,
		call: &httpCaller{
			endpoint: endpoint,
			client:   &http.Client{Timeout: timeout},
		},
	}
}

// Endpoint returns the normalized endpoint address.
func (c *Client) Endpoint() string { return c.endpoint }

// State returns the current connection state.
func (c *Client) State() analysis.ConnState { return c.state }

// Connect attempts the handshake. On failure the state becomes Failed and
// stays there until Connect is called again; it never silently flips to
// Connected after a failed attempt.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.call.handshake(ctx); err != nil {
		c.state = analysis.StateFailed
		return &analysis.TransportError{
			Err: fmt.Errorf("failed to connect to %s: %w", c.endpoint, err),
		}
	}
	c.state = analysis.StateConnected
	return nil
}

// AnalyzeFull runs the full-analysis capability and normalizes the response.
func (c *Client) AnalyzeFull(ctx context.Context, img *images.Image) (any, error) {
	return c.structured(ctx, analysis.CapabilityFull, img)
}

// ExtractTextInfo runs the text-info capability; same normalization rule
// as AnalyzeFull.
func (c *Client) ExtractTextInfo(ctx context.Context, img *images.Image) (any, error) {
	return c.structured(ctx, analysis.CapabilityTextInfo, img)
}

// Orientation returns the endpoint's orientation label verbatim.
func (c *Client) Orientation(ctx context.Context, img *images.Image) (string, error) {
	return c.scalar(ctx, analysis.CapabilityOrientation, img)
}

// AnalyzeColors returns the endpoint's color summary with a fixed prefix.
func (c *Client) AnalyzeColors(ctx context.Context, img *images.Image) (string, error) {
	text, err := c.scalar(ctx, analysis.CapabilityColors, img)
	if err != nil {
		return "", err
	}
	return ColorPrefix + text, nil
}

// precheck enforces the fail-fast invariants. No remote call happens unless
// the client is connected and the image carries pixels.
func (c *Client) precheck(img *images.Image) error {
	if c.state != analysis.StateConnected {
		return analysis.ErrNotConnected
	}
	if img.Empty() {
		return analysis.ErrNoImage
	}
	return nil
}

func (c *Client) structured(ctx context.Context, capability analysis.Capability, img *images.Image) (any, error) {
	if err := c.precheck(img); err != nil {
		return nil, err
	}
	v, err := c.call.predict(ctx, capability, img)
	if err != nil {
		return nil, &analysis.TransportError{Capability: capability, Err: err}
	}
	return normalize(v)
}

func (c *Client) scalar(ctx context.Context, capability analysis.Capability, img *images.Image) (string, error) {
	if err := c.precheck(img); err != nil {
		return "", err
	}
	v, err := c.call.predict(ctx, capability, img)
	if err != nil {
		return "", &analysis.TransportError{Capability: capability, Err: err}
	}
	if v.IsText {
		return v.Text, nil
	}
	return fmt.Sprint(v.Structured), nil
}

// normalize is the single translation point from the wire's string-vs-
// structured ambiguity to a caller-facing value: strings must parse as JSON,
// structured values pass through unchanged.
func normalize(v Value) (any, error) {
	if !v.IsText {
		return v.Structured, nil
	}
	return analysis.DecodeStructured(v.Text)
}
