package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultAnthropicBaseURL is the public Messages API host
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicPrefix         = "llm/anthropic"
)

// Anthropic implements Provider for the Anthropic Messages API
type Anthropic struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewAnthropic creates a provider for baseURL. A nil httpClient gets a
// traced client with no overall timeout; callers bound each call with ctx.
func NewAnthropic(httpClient *http.Client, baseURL, apiKey string) *Anthropic {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	return &Anthropic{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Complete sends a non-streaming Messages request
func (provider *Anthropic) Complete(ctx context.Context, request Request) (*Response, error) {
	if provider.apiKey == "" {
		return nil, fmt.Errorf("%s: api key not configured", anthropicPrefix)
	}

	headers := http.Header{}
	headers.Set("x-api-key", provider.apiKey)
	headers.Set("anthropic-version", anthropicVersion)

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/v1/messages", buildAnthropicRequest(request), headers, anthropicPrefix)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	var wire anthropicResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", anthropicPrefix, err)
	}
	return wire.toResponse(), nil
}

func buildAnthropicRequest(request Request) anthropicRequest {
	wire := anthropicRequest{
		Model:     request.Model,
		MaxTokens: request.MaxTokens,
		System:    request.System,
	}
	for _, message := range request.Messages {
		wire.Messages = append(wire.Messages, anthropicMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	return wire
}

// --- Wire types ---

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type anthropicUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

func (wire *anthropicResponse) toResponse() *Response {
	response := &Response{
		Model:      wire.Model,
		StopReason: wire.StopReason,
		Usage: Usage{
			InputTokens:  wire.Usage.InputTokens,
			OutputTokens: wire.Usage.OutputTokens,
		},
	}
	for _, block := range wire.Content {
		response.Content = append(response.Content, ContentBlock{
			Type: ContentType(block.Type),
			Text: block.Text,
		})
	}
	return response
}
