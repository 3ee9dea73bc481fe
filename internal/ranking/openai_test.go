package ranking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kathaipom/internal/model"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type fakeChat struct {
	resp openai.ChatCompletionResponse
	err  error
	got  openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	return f.resp, f.err
}

func toolResponse(args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: rankFunctionName, Arguments: args},
				}},
			},
		}},
	}
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
	}
}

func sampleInput() Input {
	return Input{
		Stories: []Story{
			{StoryID: "story-1", Content: "mountains", AuthorID: "user-2"},
			{StoryID: "story-2", Content: "oceans", AuthorID: "user-3"},
		},
		Interests: []string{"oceans"},
		History:   []model.Interaction{{TargetID: "story-2", Type: model.InteractionLike}},
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestRank_ToolCall(t *testing.T) {
	// ARRANGE
	chat := &fakeChat{resp: toolResponse(`{"rankings":[{"storyId":"story-2","priorityScore":0.9,"reason":"matches oceans"},{"storyId":"story-1","priorityScore":0.2,"reason":"weak"}]}`)}
	r := NewOpenAIRanker(chat, "test-model", nil)

	// ACT
	got, err := r.Rank(context.Background(), sampleInput())

	// ASSERT
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "story-2", got[0].StoryID)
	assert.Equal(t, 0.9, got[0].PriorityScore)
	assert.Equal(t, "matches oceans", got[0].Reason)

	assert.Equal(t, "test-model", chat.got.Model)
	require.Len(t, chat.got.Messages, 2)
	assert.Contains(t, chat.got.Messages[1].Content, `"storyId":"story-1"`)
	assert.Contains(t, chat.got.Messages[1].Content, `User Interests: ["oceans"]`)
	assert.Contains(t, chat.got.Messages[1].Content, `"interactionType":"like"`)
}

func TestRank_BareArrayInFencedText(t *testing.T) {
	chat := &fakeChat{resp: textResponse("```json\n[{\"postId\":\"story-1\",\"priorityScore\":3,\"reason\":\"x\"}]\n```")}
	r := NewOpenAIRanker(chat, "m", nil)

	got, err := r.Rank(context.Background(), sampleInput())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "story-1", got[0].StoryID)
	assert.Equal(t, 3.0, got[0].PriorityScore)
}

func TestRank_DropsUnknownDuplicateAndUnscored(t *testing.T) {
	chat := &fakeChat{resp: textResponse(`{"rankings":[
		{"storyId":"story-9","priorityScore":5},
		{"storyId":"story-1","priorityScore":1},
		{"storyId":"story-1","priorityScore":7},
		{"storyId":"story-2"}
	]}`)}
	r := NewOpenAIRanker(chat, "m", nil)

	got, err := r.Rank(context.Background(), sampleInput())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Ranking{StoryID: "story-1", PriorityScore: 1}, got[0])
}

func TestRank_Failures(t *testing.T) {
	tests := []struct {
		name    string
		chat    *fakeChat
		wantErr error
	}{
		{
			name: "transport error",
			chat: &fakeChat{err: errors.New("connection refused")},
		},
		{
			name:    "empty response",
			chat:    &fakeChat{resp: openai.ChatCompletionResponse{}},
			wantErr: ErrMalformedRanking,
		},
		{
			name:    "not json",
			chat:    &fakeChat{resp: textResponse("story-2 is best")},
			wantErr: ErrMalformedRanking,
		},
		{
			name:    "no matching ids",
			chat:    &fakeChat{resp: textResponse(`{"rankings":[{"storyId":"story-404","priorityScore":1}]}`)},
			wantErr: ErrNoRankings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewOpenAIRanker(tt.chat, "m", nil)
			_, err := r.Rank(context.Background(), sampleInput())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRank_NoStoriesSkipsCall(t *testing.T) {
	chat := &fakeChat{err: errors.New("must not be called")}
	r := NewOpenAIRanker(chat, "m", nil)

	got, err := r.Rank(context.Background(), Input{})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFromStories_TruncatesAndCounts(t *testing.T) {
	long := strings.Repeat("é", maxContentRunes+10)
	stories := []model.EnrichedStory{{
		Story: model.Story{
			ID:       "story-1",
			AuthorID: "user-2",
			Content:  []string{long},
			Likes:    4,
			Comments: []model.Comment{{ID: "comment-1"}, {ID: "comment-2"}},
		},
	}}

	in := FromStories(stories, nil, nil)

	require.Len(t, in.Stories, 1)
	assert.Len(t, []rune(in.Stories[0].Content), maxContentRunes)
	assert.Equal(t, 4, in.Stories[0].Likes)
	assert.Equal(t, 2, in.Stories[0].Comments)
	assert.NotNil(t, in.Interests)
	assert.NotNil(t, in.History)
}
