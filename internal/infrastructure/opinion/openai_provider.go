package opinion

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"axcouncil/internal/errs"
	"axcouncil/internal/ports"
)

const systemPrompt = "You are an agent-experience auditor. Given a website and its " +
	"target audience, answer with a single JSON object: " +
	`{"score": 0-100, "anps": -100..100, "factors": {"<factor name>": 0-100}, ` +
	`"accessibility": string, "recommendations": [string]}. No prose outside the JSON.`

// OpenAIProvider queries one panelist model through an OpenAI-compatible
// chat-completions endpoint.
type OpenAIProvider struct {
	client  openai.Client
	timeout time.Duration
}

func NewOpenAIProvider(baseURL, apiKey string, timeout time.Duration) *OpenAIProvider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		timeout: timeout,
	}
}

// GetOpinion returns the raw completion text. The call is bounded by the
// configured timeout; a late server-side completion is discarded with the
// context.
func (p *OpenAIProvider) GetOpinion(ctx context.Context, req ports.OpinionRequest) (string, error) {
	if req.Model == "" {
		return "", errors.New("model is required")
	}
	if req.Subject == "" {
		return "", errors.New("subject is required")
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(req.Subject),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(callCtx, params)
	if err != nil {
		return "", errs.Wrap(err, "chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
