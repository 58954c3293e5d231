package embedding

import "context"

// Provider 把帖子文本 (标题 + 正文) 转换为向量，供相似帖子索引使用
// 同一个 Provider 的输出维度必须和 qdrant.vector_size 一致
type Provider interface {
	GetVector(ctx context.Context, text string) ([]float32, error)
}

var _ Provider = (*OpenAIClient)(nil)
