package commentary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Voice rewrites a persona line before it is published.
type Voice interface {
	Rephrase(ctx context.Context, p Persona, trigger Trigger, line string) (string, error)
}

// AnthropicVoice rephrases lines with a Claude model in the persona's style.
type AnthropicVoice struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicVoice builds a Voice backed by the Messages API.
//
// Precondition: model must be non-empty.
func NewAnthropicVoice(model string, opts ...option.RequestOption) *AnthropicVoice {
	return &AnthropicVoice{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(model),
		maxTokens: 120,
	}
}

// Rephrase asks the model for a single short chat line.
//
// Postcondition: Returns a non-empty line or an error.
func (v *AnthropicVoice) Rephrase(ctx context.Context, p Persona, trigger Trigger, line string) (string, error) {
	system := fmt.Sprintf("You are %s, a spectator in a creature battle arena chat. %s Reply with one short chat message and nothing else.", p.Name, p.Style)
	prompt := fmt.Sprintf("Event: %s\nDraft message: %s\nRewrite the draft in your own voice.", trigger, line)
	msg, err := v.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     v.model,
		MaxTokens: v.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic voice: %w", err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("anthropic voice: empty response")
	}
	return out, nil
}
