package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/vision-relay/internal/domain/analysis"
	"github.com/bryanwahyu/vision-relay/internal/domain/images"
	"github.com/bryanwahyu/vision-relay/internal/infra/ai/prompt"
)

const maxTokens = 1024

// Client is the OpenAI-backed analysis provider. It implements the same
// Analyzer port as the Gradio remote client, so the service layer can swap
// providers by config.
type Client struct {
	*openai.Client
	Model string
	state analysis.ConnState
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		Client: openai.NewClient(apiKey),
		Model:  model,
		state:  analysis.StateDisconnected,
	}
}

// Connect verifies the API key with a cheap models listing.
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.ListModels(ctx); err != nil {
		c.state = analysis.StateFailed
		return &analysis.TransportError{
			Err: fmt.Errorf("failed to connect to OpenAI API: %w", err),
		}
	}
	c.state = analysis.StateConnected
	return nil
}

func (c *Client) State() analysis.ConnState { return c.state }

func (c *Client) AnalyzeFull(ctx context.Context, img *images.Image) (any, error) {
	text, err := c.predict(ctx, analysis.CapabilityFull, prompt.FullAnalysisSystem(), img)
	if err != nil {
		return nil, err
	}
	return analysis.DecodeStructured(strings.TrimSpace(text))
}

func (c *Client) ExtractTextInfo(ctx context.Context, img *images.Image) (any, error) {
	text, err := c.predict(ctx, analysis.CapabilityTextInfo, prompt.TextInfoSystem(), img)
	if err != nil {
		return nil, err
	}
	return analysis.DecodeStructured(strings.TrimSpace(text))
}

func (c *Client) Orientation(ctx context.Context, img *images.Image) (string, error) {
	text, err := c.predict(ctx, analysis.CapabilityOrientation, prompt.OrientationSystem(), img)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}

func (c *Client) AnalyzeColors(ctx context.Context, img *images.Image) (string, error) {
	text, err := c.predict(ctx, analysis.CapabilityColors, prompt.ColorsSystem(), img)
	if err != nil {
		return "", err
	}
	return "Color analysis:\n" + strings.TrimSpace(text), nil
}

func (c *Client) predict(ctx context.Context, capability analysis.Capability, system string, img *images.Image) (string, error) {
	if c.state != analysis.StateConnected {
		return "", analysis.ErrNotConnected
	}
	if img.Empty() {
		return "", analysis.ErrNoImage
	}

	model := c.Model
	if model == "" {
		model = "gpt-4o"
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    img.DataURL(),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &analysis.TransportError{Capability: capability, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &analysis.TransportError{Capability: capability, Err: fmt.Errorf("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}
