// Package llm talks to hosted chat-completion APIs.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultModel is used when REGCONSOLE_MODEL is unset.
const DefaultModel = "anthropic:claude-sonnet-4-6"

// ModelEnv names the environment variable holding the provider:model string.
const ModelEnv = "REGCONSOLE_MODEL"

const (
	defaultMaxTokens = 1024
	defaultTimeout   = 2 * time.Minute
)

// Request holds the parameters for one completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// Response holds the text of a completion and the model that produced it.
type Response struct {
	Content string
	Model   string
}

// Provider is a completion backend.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Getenv looks up an environment variable. Tests substitute their own.
type Getenv func(string) string

// NewProvider parses "provider:model" and returns the matching Provider.
// The API key is read through getenv (os.Getenv when nil) and must be set.
func NewProvider(providerModel string, getenv Getenv) (Provider, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	name, model, ok := strings.Cut(providerModel, ":")
	if !ok || name == "" || model == "" {
		return nil, fmt.Errorf("invalid model %q: expected provider:model (e.g. %s)", providerModel, DefaultModel)
	}
	switch name {
	case "anthropic":
		key := getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		return &anthropicProvider{model: model, apiKey: key, endpoint: anthropicAPIURL}, nil
	case "openai":
		key := getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return &openaiProvider{model: model, apiKey: key, endpoint: openaiAPIURL}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: supported providers are anthropic, openai", name)
	}
}

// ModelFromEnv returns REGCONSOLE_MODEL, or DefaultModel and false when unset.
func ModelFromEnv(getenv Getenv) (string, bool) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if m := getenv(ModelEnv); m != "" {
		return m, true
	}
	return DefaultModel, false
}

// truncate limits a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
