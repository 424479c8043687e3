package explainer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/xiaot623/algostream/internal/domain"
)

// MessagesClient captures the subset of the Anthropic SDK used here. It is
// satisfied by *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicClient generates explanations directly with the Messages API.
type AnthropicClient struct {
	msg       MessagesClient
	model     string
	maxTokens int64
}

// Ensure AnthropicClient implements Explainer interface.
var _ Explainer = (*AnthropicClient)(nil)

// NewAnthropic wraps a Messages client.
func NewAnthropic(msg MessagesClient, model string) (*AnthropicClient, error) {
	if msg == nil {
		return nil, errors.New("anthropic messages client is required")
	}
	if model == "" {
		return nil, errors.New("anthropic model is required")
	}
	return &AnthropicClient{msg: msg, model: model, maxTokens: 1024}, nil
}

// NewAnthropicFromAPIKey constructs a client using the default Anthropic HTTP client.
func NewAnthropicFromAPIKey(apiKey, model string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropic(&ac.Messages, model)
}

// Explain sends the frame merged with userBehavior and parses the JSON reply.
func (a *AnthropicClient) Explain(ctx context.Context, frame domain.Frame, behavior domain.BehaviorSignal) (*domain.Explanation, error) {
	input, err := buildPromptInput(frame, behavior)
	if err != nil {
		return nil, err
	}

	msg, err := a.msg.New(ctx, sdk.MessageNewParams{
		MaxTokens:   a.maxTokens,
		Model:       sdk.Model(a.model),
		System:      []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(input))},
		Temperature: sdk.Float(0.7),
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return parseExplanation(text.String())
}

func buildPromptInput(frame domain.Frame, behavior domain.BehaviorSignal) (string, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(frame.Bytes(), &fields); err != nil {
		return "", fmt.Errorf("failed to decode frame: %w", err)
	}
	ub, err := json.Marshal(behavior)
	if err != nil {
		return "", fmt.Errorf("failed to marshal user behavior: %w", err)
	}
	fields["userBehavior"] = ub

	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt input: %w", err)
	}
	return string(out), nil
}

// parseExplanation strips an optional code fence and decodes the reply.
func parseExplanation(text string) (*domain.Explanation, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) >= 2 {
			lines = lines[1:]
			if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
				lines = lines[:len(lines)-1]
			}
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("anthropic: reply is not JSON: %w", err)
	}
	for _, field := range []string{"mode", "explanation", "short_hint", "confidence_estimate", "followup_question"} {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("anthropic: reply missing field %q", field)
		}
	}

	var explanation domain.Explanation
	if err := json.Unmarshal([]byte(text), &explanation); err != nil {
		return nil, fmt.Errorf("anthropic: invalid reply: %w", err)
	}
	return &explanation, nil
}

const systemPrompt = `You are a patient algorithms tutor narrating a step-by-step visualization.

You receive one execution frame as JSON: the data snapshot, highlighted
positions or pointers, the action just taken, running metrics, and a
"userBehavior" object describing how the learner is interacting with this
step (pauseDuration in seconds, replayCount, speedMultiplier, and optional
hoverIndex / scrollDepth).

Adapt your register to the learner:
- long pauses or repeated replays mean the learner is struggling: use
  "conceptual" mode, plain language, and an encouraging hint;
- normal pacing: use "operational" mode and describe what the step does;
- high speed multipliers with no replays: use "technical" mode and mention
  invariants or complexity.

Reply with a single JSON object and nothing else:
{
  "mode": "conceptual" | "operational" | "technical",
  "explanation": "two to four sentences about this step",
  "short_hint": "one short sentence, may be empty",
  "confidence_estimate": "low" | "medium" | "high",
  "followup_question": "one question to check understanding, may be empty"
}`
