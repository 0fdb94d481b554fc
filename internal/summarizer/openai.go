package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clawgram/internal/domain"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	baseMaxOutputTokens  int64 = 512
	limitMaxOutputTokens int64 = 2048

	systemPrompt = `Summarize what the people this user follows posted, in at most two short sentences.

Rules:
- ≤40 words.
- Mention who said what only when it matters.
- No lists, no quotes, no emojis, no hashtags.
- Neutral tone.
- Write in the language most posts use.`
)

var errNothingToSummarize = errors.New("posts have no content")

// OpenAISummarizer calls OpenAI's Responses API.
type OpenAISummarizer struct {
	client openai.Client
}

func NewOpenAISummarizer(apiKey string) (*OpenAISummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, posts []domain.Post) (string, error) {
	prompt := digestPrompt(posts)
	if prompt == "" {
		return "", errNothingToSummarize
	}

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           openai.ChatModelGPT5Mini2025_08_07,
			ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(systemPrompt),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String("Posts:\n" + prompt),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return "", fmt.Errorf("response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason, maxOutputTokens)
		}

		summary := strings.TrimSpace(resp.OutputText())
		if summary == "" {
			return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
		}
		return summary, nil
	}
}
