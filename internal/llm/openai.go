package llm

import (
	"context"
	"fmt"
	"net/http"
)

// openaiAPIURL is the endpoint new providers are created with.
var openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// SetOpenAIAPIURL overrides the endpoint and returns the previous one.
// Intended for tests only.
func SetOpenAIAPIURL(u string) string {
	prev := openaiAPIURL
	openaiAPIURL = u
	return prev
}

type openaiProvider struct {
	model    string
	apiKey   string // unexported; never serialized
	endpoint string
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *openaiProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	var messages []openaiMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: req.UserPrompt})

	body := openaiRequest{Model: p.model, Messages: messages, MaxTokens: req.MaxTokens}
	if req.Temperature != 0 {
		t := req.Temperature
		body.Temperature = &t
	}

	var or openaiResponse
	status, raw, err := postJSON(ctx, p.endpoint, map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}, body, &or)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if status != http.StatusOK {
		if or.Error != nil {
			return nil, fmt.Errorf("openai: %s: %s", or.Error.Type, or.Error.Message)
		}
		return nil, fmt.Errorf("openai: HTTP %d: %s", status, truncate(raw, 200))
	}
	if len(or.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}
	return &Response{Content: or.Choices[0].Message.Content, Model: "openai:" + or.Model}, nil
}
