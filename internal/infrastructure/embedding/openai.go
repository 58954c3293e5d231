package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL // 例如 "https://api.openai.com/v1" 或其它中转地址
	}
	if model == "" {
		model = string(openai.SmallEmbedding3) // 默认模型，维度 1536
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  openai.EmbeddingModel(model),
	}
}

func (c *OpenAIClient) GetVector(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding api error: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}
