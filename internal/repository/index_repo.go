package repository

import (
	"context"

	"github.com/leon37/Inkpost/internal/model"
)

// SimilarPost 相似帖子检索结果
type SimilarPost struct {
	ID    string  `json:"_id"`
	Title string  `json:"title"`
	Score float32 `json:"score"`
}

// PostIndex 定义了帖子向量索引的接口
type PostIndex interface {
	Save(ctx context.Context, post *model.Post, vector []float32) error
	// SearchSimilar 按向量检索，结果中排除 excludeID 本身
	SearchSimilar(ctx context.Context, queryVector []float32, excludeID string, limit int) ([]SimilarPost, error)
	Delete(ctx context.Context, postID string) error
}
