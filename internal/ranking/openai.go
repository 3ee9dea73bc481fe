package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"kathaipom/internal/logger"
)

const rankFunctionName = "rankStories"

// ChatCompleter is the slice of the go-openai client the ranker needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIRanker asks an OpenAI-compatible chat model to score stories.
type OpenAIRanker struct {
	client ChatCompleter
	model  string
	log    *zap.Logger
}

func NewOpenAIRanker(client ChatCompleter, modelName string, log *zap.Logger) *OpenAIRanker {
	return &OpenAIRanker{client: client, model: modelName, log: logger.OrNop(log).Named("ranking")}
}

// NewOpenAIClient builds a go-openai client, pointing it at baseURL when set.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

const systemPrompt = `You are an AI assistant designed to prioritize content in a social media feed for individual users.

Given a list of stories, user interests, and the user's interaction history, your goal is to assign a priority score to each story.
Stories should be scored higher if they align with the user's interests and if the user has a history of interacting with similar content.
The output should contain every story, each with its original storyId, a priorityScore (higher is better), and a brief reason for the score.

Consider the following:
- Match user interests with story content.
- Prioritize stories from authors the user follows or has interacted with previously.
- Boost stories with high engagement (likes, comments), but adjust based on user preferences.

Respond by calling the rankStories function. If you cannot call functions, answer with a JSON object of the form {"rankings": [{"storyId": "...", "priorityScore": 0, "reason": "..."}]}.`

func buildUserPrompt(in Input) (string, error) {
	interests, err := json.Marshal(in.Interests)
	if err != nil {
		return "", fmt.Errorf("marshal interests: %w", err)
	}
	history, err := json.Marshal(in.History)
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}
	stories, err := json.Marshal(in.Stories)
	if err != nil {
		return "", fmt.Errorf("marshal stories: %w", err)
	}

	return fmt.Sprintf("User Interests: %s\n\nUser Interaction History: %s\n\nStories: %s", interests, history, stories), nil
}

var rankFunction = openai.FunctionDefinition{
	Name:        rankFunctionName,
	Description: "Assign a priority score to every story in the feed.",
	Parameters: &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"rankings": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"storyId": {
							Type:        jsonschema.String,
							Description: "The storyId exactly as given in the input.",
						},
						"priorityScore": {
							Type:        jsonschema.Number,
							Description: "Relevance and engagement potential for this user. Higher is better.",
						},
						"reason": {
							Type:        jsonschema.String,
							Description: "A short explanation of the score.",
						},
					},
					Required: []string{"storyId", "priorityScore", "reason"},
				},
			},
		},
		Required: []string{"rankings"},
	},
}

// Rank sends one chat completion and returns the scored stories.
// Transport errors, unparseable output and responses naming no known story are all errors.
func (r *OpenAIRanker) Rank(ctx context.Context, in Input) ([]Ranking, error) {
	if len(in.Stories) == 0 {
		return nil, nil
	}

	userPrompt, err := buildUserPrompt(in)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Tools: []openai.Tool{{
			Type:     openai.ToolTypeFunction,
			Function: &rankFunction,
		}},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	raw, err := extractPayload(resp)
	if err != nil {
		return nil, err
	}

	rankings, err := parseRankings(raw, in.Stories)
	if err != nil {
		return nil, err
	}

	r.log.Debug("ranked feed",
		zap.Int("stories", len(in.Stories)),
		zap.Int("ranked", len(rankings)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return rankings, nil
}

// extractPayload prefers the rankStories tool call and falls back to the message text.
func extractPayload(resp openai.ChatCompletionResponse) (string, error) {
	for _, choice := range resp.Choices {
		for _, call := range choice.Message.ToolCalls {
			if call.Function.Name == rankFunctionName {
				return call.Function.Arguments, nil
			}
		}
	}
	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", fmt.Errorf("%w: empty response", ErrMalformedRanking)
}

type rawRanking struct {
	StoryID       string   `json:"storyId"`
	PostID        string   `json:"postId"`
	PriorityScore *float64 `json:"priorityScore"`
	Reason        string   `json:"reason"`
}

// parseRankings accepts {"rankings": [...]} or a bare array, with optional markdown fences.
// Entries for unknown ids, repeats and entries without a score are dropped.
func parseRankings(raw string, stories []Story) ([]Ranking, error) {
	raw = stripFences(raw)

	var entries []rawRanking
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRanking, err)
		}
	} else {
		var wrapped struct {
			Rankings []rawRanking `json:"rankings"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRanking, err)
		}
		entries = wrapped.Rankings
	}

	known := make(map[string]bool, len(stories))
	for _, s := range stories {
		known[s.StoryID] = true
	}

	seen := make(map[string]bool, len(entries))
	out := make([]Ranking, 0, len(entries))
	for _, e := range entries {
		id := e.StoryID
		if id == "" {
			id = e.PostID
		}
		if !known[id] || seen[id] || e.PriorityScore == nil {
			continue
		}
		seen[id] = true
		out = append(out, Ranking{StoryID: id, PriorityScore: *e.PriorityScore, Reason: e.Reason})
	}

	if len(out) == 0 {
		return nil, ErrNoRankings
	}
	return out, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
