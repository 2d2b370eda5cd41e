package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrNotConfigured is returned when no API key is set
	ErrNotConfigured = errors.New("OpenAI API key is not configured")
	// ErrInvalidMessages is returned for an empty conversation or an unsupported role
	ErrInvalidMessages = errors.New("invalid messages format")
	// ErrEmptyResponse is returned when the model returns no choices
	ErrEmptyResponse = errors.New("invalid response format from OpenAI")
)

const (
	LanguageEnglish = "english"
	LanguageHindi   = "hindi"
)

var systemPrompts = map[string]string{
	LanguageEnglish: "You are a helpful agricultural assistant. You provide information about crops, soil, weather, " +
		"and farming techniques to help farmers improve their agricultural practices.",
	LanguageHindi: "आप एक सहायक कृषि सहायक हैं। आप हिंदी में उत्तर देते हैं और किसानों को फसल, मिट्टी, मौसम और कृषि तकनीकों के बारे में जानकारी प्रदान करते हैं।",
}

// SystemPrompt returns the prompt for a language, falling back to English
func SystemPrompt(language string) string {
	if prompt, ok := systemPrompts[strings.ToLower(language)]; ok {
		return prompt
	}
	return systemPrompts[LanguageEnglish]
}

// Options configures the chat client
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Message is one turn of the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Reply is the assistant's answer
type Reply struct {
	Message string `json:"message"`
	Usage   Usage  `json:"usage"`
}

// Assistant answers farming questions through a chat completion model
type Assistant struct {
	client *openai.Client
	opts   Options
	logger zerolog.Logger
}

// New creates an assistant. A missing API key yields an assistant whose
// Chat always returns ErrNotConfigured.
func New(opts Options, logger zerolog.Logger) *Assistant {
	a := &Assistant{opts: opts, logger: logger}
	if opts.APIKey == "" {
		return a
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	a.client = openai.NewClientWithConfig(cfg)
	return a
}

// Configured reports whether an API key was provided
func (a *Assistant) Configured() bool {
	return a.client != nil
}

// Chat sends the conversation with a language specific system prompt
func (a *Assistant) Chat(ctx context.Context, messages []Message, language string) (*Reply, error) {
	if a.client == nil {
		return nil, ErrNotConfigured
	}
	if len(messages) == 0 {
		return nil, ErrInvalidMessages
	}

	request := openai.ChatCompletionRequest{
		Model:       a.opts.Model,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(language)},
		},
	}
	for _, m := range messages {
		if m.Role != openai.ChatMessageRoleUser && m.Role != openai.ChatMessageRoleAssistant {
			return nil, fmt.Errorf("%w: unsupported role %q", ErrInvalidMessages, m.Role)
		}
		request.Messages = append(request.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	a.logger.Debug().
		Str("model", request.Model).
		Str("language", language).
		Int("messages", len(messages)).
		Msg("Sending chat completion request")

	resp, err := a.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return &Reply{
		Message: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
