// Package llm is the boundary to the external completion provider.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Provider produces a completion for a single-turn request
type Provider interface {
	Complete(ctx context.Context, request Request) (*Response, error)
}

// Role of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn with plain text content
type Message struct {
	Role    Role
	Content string
}

// Request is a provider-neutral completion request
type Request struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
}

// ContentType tags a response content block
type ContentType string

const (
	ContentText    ContentType = "text"
	ContentToolUse ContentType = "tool_use"
)

// ContentBlock is one block of a completion response. Only text blocks carry Text.
type ContentBlock struct {
	Type ContentType
	Text string
}

// Usage reports token consumption for one request
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the provider-neutral completion result
type Response struct {
	Content    []ContentBlock
	Model      string
	StopReason string
	Usage      Usage
}

// FirstText returns the text of the first text-typed block, if any
func (r *Response) FirstText() (string, bool) {
	if r == nil {
		return "", false
	}
	for _, block := range r.Content {
		if block.Type == ContentText {
			return block.Text, true
		}
	}
	return "", false
}

// ProviderError is a non-200 response from the provider API
type ProviderError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Type is the provider-specific error type string
	// (e.g., "invalid_request_error", "rate_limit_error").
	Type string

	// Message is the human-readable error description.
	Message string
}

func (err *ProviderError) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("llm: HTTP %d: %s: %s", err.StatusCode, err.Type, err.Message)
	}
	return fmt.Sprintf("llm: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsRateLimited returns true if the error is a rate limit response (HTTP 429).
func (err *ProviderError) IsRateLimited() bool {
	return err.StatusCode == http.StatusTooManyRequests
}

// IsClientError reports a 4xx other than rate limiting. These point at a
// configuration problem (bad key, bad model) rather than provider health.
func (err *ProviderError) IsClientError() bool {
	return err.StatusCode >= 400 && err.StatusCode < 500 && !err.IsRateLimited()
}

func doProviderRequest(ctx context.Context, httpClient *http.Client, endpoint string, wireRequest any, headers http.Header, prefix string) (*http.Response, error) {
	body, err := json.Marshal(wireRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", prefix, err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", prefix, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	for key, values := range headers {
		for _, value := range values {
			httpRequest.Header.Add(key, value)
		}
	}

	httpResponse, err := httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: sending request: %w", prefix, err)
	}

	if httpResponse.StatusCode != http.StatusOK {
		defer httpResponse.Body.Close()
		return nil, readProviderError(httpResponse)
	}

	return httpResponse, nil
}

// readProviderError parses {"error":{"type":"...","message":"..."}}. A body
// in any other shape is kept verbatim, truncated, as the message.
func readProviderError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 4096))

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		return &ProviderError{
			StatusCode: httpResponse.StatusCode,
			Type:       wireError.Error.Type,
			Message:    wireError.Error.Message,
		}
	}

	message := string(body)
	if message == "" {
		message = http.StatusText(httpResponse.StatusCode)
	}
	return &ProviderError{StatusCode: httpResponse.StatusCode, Message: message}
}
