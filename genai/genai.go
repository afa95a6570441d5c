// Package genai implements the quest content generator on top of the OpenAI
// chat-completions API. Outlines come back as JSON matching quest.Outline;
// narrative bodies come back as plain prose.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/meikuraledutech/quest"
)

const outlineSystemPrompt = `You design branching choose-your-own-adventure story graphs.
Respond with a single JSON object and nothing else, shaped as:
{"title": "...", "description": "...", "nodes": [{"ref": "...", "title": "...",
"type": "START|DECISION|STORY|ENDING", "ending_type": "...", "summary": "...",
"choices": [{"target_ref": "...", "label": "...", "consequence": "..."}]}]}
Exactly one node must have type START. ENDING nodes must have no choices.
Every node must be reachable from the START node and no choice may target it.`

const contentSystemPrompt = `You write vivid second-person narrative passages for a
choose-your-own-adventure story. Respond with the passage text only.`

// Config holds the OpenAI connection settings.
type Config struct {
	APIKey string
	Model  string
}

// OpenAI is a quest.Generator backed by the OpenAI API.
type OpenAI struct {
	client openai.Client
	model  string
}

// New creates an OpenAI generator.
func New(cfg Config) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  cfg.Model,
	}
}

// GenerateOutline asks the model for a symbolic graph outline for the concept.
// The result is not validated here — that is the validator's job.
func (g *OpenAI) GenerateOutline(ctx context.Context, concept string) (*quest.Outline, error) {
	raw, err := g.complete(ctx, outlineSystemPrompt, "Story concept: "+concept)
	if err != nil {
		return nil, fmt.Errorf("genai: generate outline: %w", err)
	}
	o, err := parseOutline(raw)
	if err != nil {
		return nil, fmt.Errorf("genai: parse outline: %w", err)
	}
	return o, nil
}

// GenerateContent asks the model for the narrative body of one outline node.
func (g *OpenAI) GenerateContent(ctx context.Context, node quest.OutlineNode) (string, error) {
	prompt := fmt.Sprintf("Node title: %s\nNode type: %s\nSummary: %s", node.Title, node.Type, node.Summary)
	if node.EndingType != "" {
		prompt += "\nEnding type: " + node.EndingType
	}
	body, err := g.complete(ctx, contentSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("genai: generate content for %q: %w", node.Ref, err)
	}
	return strings.TrimSpace(body), nil
}

func (g *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseOutline decodes a model response into an outline, tolerating markdown
// code fences around the JSON.
func parseOutline(raw string) (*quest.Outline, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	var o quest.Outline
	if err := json.Unmarshal([]byte(s), &o); err != nil {
		return nil, err
	}
	if len(o.Nodes) == 0 {
		return nil, fmt.Errorf("outline has no nodes")
	}
	return &o, nil
}
