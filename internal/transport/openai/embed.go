package openai

import (
	"context"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/talentrag/internal/domain"
)

// Embed implements domain.Embedder. Returns the vector, usage and cost.
func (p *Provider) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := p.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		Model:        res.Model,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
		Cost:         res.Cost,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Vectors come back in input order.
func (p *Provider) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	model := string(p.model)
	op := "embed"
	if len(texts) > 1 {
		op = "batch_embed"
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          p.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           p.user,
	}
	if p.dimensions > 0 {
		req.Dimensions = p.dimensions
	}

	resp, err := call(ctx, p, op, model, func(ctx context.Context) (openai.EmbeddingResponse, error) {
		resp, err := p.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return openai.EmbeddingResponse{}, err //nolint:wrapcheck // classified by call
		}
		if len(resp.Data) != len(texts) {
			return openai.EmbeddingResponse{}, &emptyResponseError{
				msg: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
			}
		}
		return resp, nil
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	embeddings := make([][]float32, len(resp.Data))
	for i := range resp.Data {
		embeddings[i] = resp.Data[i].Embedding
	}

	cost := p.rates.Cost(model, resp.Usage.TotalTokens)
	p.recordUsage(model, resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens, cost)

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		Model:        model,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
		Cost:         cost,
	}, nil
}
