package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const ratingPrompt = `You are a scheduling assistant. Rate how urgently each task ` +
	`should be worked on, from 0 (can wait indefinitely) to 100 (drop everything). ` +
	`Consider due dates, importance weight, and effort. Respond with JSON only, in ` +
	`the form {"rated_tasks": [{"id": "<task id>", "priority_score": <0-100>}]}.`

// LLMOracle rates tasks through an OpenAI-compatible chat endpoint.
type LLMOracle struct {
	model   llms.Model
	timeout time.Duration
}

// NewLLMOracle builds a client against an OpenAI-compatible API.
func NewLLMOracle(apiKey, baseURL, modelName string, timeout time.Duration) (*LLMOracle, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
		openai.WithResponseFormat(&openai.ResponseFormat{Type: "json_object"}),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create oracle client: %w", err)
	}
	return &LLMOracle{model: client, timeout: timeout}, nil
}

type ratedTask struct {
	ID            string `json:"id"`
	PriorityScore int    `json:"priority_score"`
}

type ratingResponse struct {
	RatedTasks []ratedTask `json:"rated_tasks"`
}

// RateTasks sends the whole batch in one call and parses the scored ids out
// of the model's JSON reply.
func (o *LLMOracle) RateTasks(ctx context.Context, tasks []TaskSummary) (map[string]int, error) {
	if len(tasks) == 0 {
		return map[string]int{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	payload, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal task batch: %w", err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, ratingPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, string(payload)),
	}

	resp, err := o.model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("rate tasks: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("rate tasks: empty response")
	}

	var parsed ratingResponse
	content := strings.TrimSpace(resp.Choices[0].Content)
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}

	scores := make(map[string]int, len(parsed.RatedTasks))
	for _, rated := range parsed.RatedTasks {
		id := strings.TrimSpace(rated.ID)
		if id == "" {
			continue
		}
		scores[id] = rated.PriorityScore
	}
	return scores, nil
}
