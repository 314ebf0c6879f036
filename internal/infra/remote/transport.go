package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bryanwahyu/vision-relay/internal/domain/analysis"
	"github.com/bryanwahyu/vision-relay/internal/domain/images"
)

// Value is the raw outcome of one capability call before normalization:
// either a text payload or an already-structured JSON value. The ambiguity
// stays contained here; callers only ever see normalized results.
type Value struct {
	Text       string
	Structured any
	IsText     bool
}

// caller is the wire seam. Tests install a spy here to count remote calls.
type caller interface {
	handshake(ctx context.Context) error
	predict(ctx context.Context, capability analysis.Capability, img *images.Image) (Value, error)
}

// httpCaller talks to a Gradio-style endpoint: GET /config for the
// handshake, POST /run/<capability> with {"data":[<data-url>]} for predicts.
type httpCaller struct {
	endpoint string
	client   *http.Client
}

func (h *httpCaller) handshake(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+"/config", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("handshake rejected (status %d)", resp.StatusCode)
	}
	return nil
}

type predictRequest struct {
	Data []any `json:"data"`
}

type predictResponse struct {
	Data []json.RawMessage `json:"data"`
}

func (h *httpCaller) predict(ctx context.Context, capability analysis.Capability, img *images.Image) (Value, error) {
	payload, err := json.Marshal(predictRequest{Data: []any{img.DataURL()}})
	if err != nil {
		return Value{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/run/%s", h.endpoint, capability)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Value{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Value{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Value{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Value{}, fmt.Errorf("endpoint error (status %d): %s", resp.StatusCode, string(body))
	}

	var out predictResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Value{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Data) == 0 {
		return Value{}, fmt.Errorf("empty response data")
	}
	return decodeValue(out.Data[0])
}

// decodeValue keeps the string-vs-structured distinction from the wire.
func decodeValue(raw json.RawMessage) (Value, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Value{IsText: true, Text: s}, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Value{}, fmt.Errorf("decode value: %w", err)
	}
	return Value{Structured: v}, nil
}
