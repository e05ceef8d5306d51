package openai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/talentrag/internal/domain"
)

// Complete implements domain.Completer with the configured chat model.
func (p *Provider) Complete(
	ctx context.Context, messages []domain.ChatMessage, temperature float32,
) (domain.CompletionResult, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.chatModel,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		Temperature: temperature,
		User:        p.user,
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := call(ctx, p, "complete", p.chatModel, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return openai.ChatCompletionResponse{}, err //nolint:wrapcheck // classified by call
		}
		if len(resp.Choices) == 0 {
			return openai.ChatCompletionResponse{}, &emptyResponseError{msg: "completion returned no choices"}
		}
		return resp, nil
	})
	if err != nil {
		return domain.CompletionResult{}, err
	}

	usage := resp.Usage
	cost := p.rates.Cost(p.chatModel, usage.TotalTokens)
	p.recordUsage(p.chatModel, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, cost)

	return domain.CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		Model:            p.chatModel,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		Cost:             cost,
	}, nil
}
