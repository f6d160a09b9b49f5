package normalize

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const timeResolverSystemPrompt = `You resolve spoken appointment times.
Given a reference time and a transcript, answer with exactly one RFC 3339
timestamp in the reference timezone, or the word "none" if the transcript
does not contain a date or time.`

// OpenAITimeResolver asks a chat model to resolve transcripts the
// rule-based parser could not. It is wired only when an API key is
// configured; the normalizer works without it.
type OpenAITimeResolver struct {
	client *openai.Client
	model  string
}

func NewOpenAITimeResolver(apiKey, model string) *OpenAITimeResolver {
	return &OpenAITimeResolver{client: openai.NewClient(apiKey), model: model}
}

func (r *OpenAITimeResolver) ResolveTime(ctx context.Context, text string, ref time.Time) (time.Time, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0,
		MaxTokens:   30,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: timeResolverSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("reference: %s\ntranscript: %s", ref.Format(time.RFC3339), text)},
		},
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("normalize: time resolver: %w", err)
	}
	if len(resp.Choices) == 0 {
		return time.Time{}, ErrNoCandidate
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" || strings.EqualFold(content, "none") {
		return time.Time{}, ErrNoCandidate
	}
	t, err := time.Parse(time.RFC3339, content)
	if err != nil {
		return time.Time{}, ErrNoCandidate
	}
	return t, nil
}
