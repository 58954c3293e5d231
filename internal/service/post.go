package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leon37/Inkpost/internal/infrastructure/embedding"
	"github.com/leon37/Inkpost/internal/model"
	"github.com/leon37/Inkpost/internal/repository"
)

const indexTimeout = 10 * time.Second

// CreatePostInput 创建帖子参数
type CreatePostInput struct {
	Title   string
	Content string
}

// UpdatePostInput 更新帖子参数，空字段保留原值
type UpdatePostInput struct {
	Title   string
	Content string
}

// PostPage 分页结果
type PostPage struct {
	Posts      []model.Post
	TotalPages int
}

// PostService 帖子业务逻辑
type PostService struct {
	repo     repository.PostRepository
	embedder embedding.Provider   // 可选，为 nil 时不建相似索引
	index    repository.PostIndex // 可选

	// 同一帖子的索引写入 (保存 / 删除) 按顺序执行
	indexLocks *keyedMutex

	defaultPageSize int
	maxPageSize     int
}

// NewPostService 构造函数 (依赖注入)
// embedder 和 index 任意一个为 nil 时关闭相似帖子功能
func NewPostService(repo repository.PostRepository, embedder embedding.Provider, index repository.PostIndex, defaultPageSize, maxPageSize int) *PostService {
	s := &PostService{
		repo:            repo,
		indexLocks:      newKeyedMutex(),
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
	if embedder != nil && index != nil {
		s.embedder = embedder
		s.index = index
	}
	return s
}

func (s *PostService) searchEnabled() bool {
	return s.index != nil
}

// Create 发帖，作者即当前用户
func (s *PostService) Create(ctx context.Context, authorID string, in CreatePostInput) (*model.Post, error) {
	post := &model.Post{
		Title:    in.Title,
		Content:  in.Content,
		AuthorID: authorID,
		Likes:    []string{},
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.syncIndex(post)
	return post, nil
}

// List 分页查询，page 从 1 开始
func (s *PostService) List(ctx context.Context, page, pageSize int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	posts, total, err := s.repo.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &PostPage{Posts: posts, TotalPages: totalPages}, nil
}

// Get 查询单个帖子
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPostErr(err)
	}
	return post, nil
}

// Update 更新帖子 (带归属权校验)
func (s *PostService) Update(ctx context.Context, id, requesterID string, in UpdatePostInput) (*model.Post, error) {
	patch := model.PostPatch{Title: in.Title, Content: in.Content}

	post, err := s.repo.UpdateByAuthor(ctx, id, requesterID, patch)
	if err != nil {
		return nil, mapPostErr(err)
	}

	if !patch.IsEmpty() {
		s.syncIndex(post)
	}
	return post, nil
}

// Delete 删除帖子 (带归属权校验)
func (s *PostService) Delete(ctx context.Context, id, requesterID string) error {
	if err := s.repo.DeleteByAuthor(ctx, id, requesterID); err != nil {
		return mapPostErr(err)
	}

	if s.searchEnabled() {
		go func() {
			unlock := s.indexLocks.Lock(id)
			defer unlock()

			bgCtx, cancel := context.WithTimeout(context.Background(), indexTimeout)
			defer cancel()

			if err := s.index.Delete(bgCtx, id); err != nil {
				slog.Error("delete post from index failed", "post_id", id, "error", err)
			}
		}()
	}
	return nil
}

// Like 点赞，同一用户只能点一次，没有取消点赞
func (s *PostService) Like(ctx context.Context, id, requesterID string) (int, error) {
	count, err := s.repo.AddLike(ctx, id, requesterID)
	if err != nil {
		return 0, mapPostErr(err)
	}
	return count, nil
}

// Similar 按内容向量查找相似帖子
func (s *PostService) Similar(ctx context.Context, id string, limit int) ([]repository.SimilarPost, error) {
	if !s.searchEnabled() {
		return nil, ErrSearchDisabled
	}
	if limit < 1 || limit > s.maxPageSize {
		limit = s.defaultPageSize
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPostErr(err)
	}

	vector, err := s.embedder.GetVector(ctx, indexText(post))
	if err != nil {
		return nil, fmt.Errorf("embed post: %w", err)
	}

	similar, err := s.index.SearchSimilar(ctx, vector, post.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar posts: %w", err)
	}
	return similar, nil
}

// syncIndex 异步更新向量索引，失败只记日志
// 执行时重新读取帖子，只索引最新内容；帖子已被删除则跳过
func (s *PostService) syncIndex(post *model.Post) {
	if !s.searchEnabled() {
		return
	}
	id := post.ID

	go func() {
		unlock := s.indexLocks.Lock(id)
		defer unlock()

		// 请求结束后外面的 ctx 会被取消，这里用新的 context
		bgCtx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()

		// 1. 取最新状态
		latest, err := s.repo.GetByID(bgCtx, id)
		if errors.Is(err, repository.ErrNotFound) {
			slog.Debug("post gone before indexing, skipped", "post_id", id)
			return
		}
		if err != nil {
			slog.Error("Failed to load post for indexing", "post_id", id, "error", err)
			return
		}

		// 2. 向量化
		vector, err := s.embedder.GetVector(bgCtx, indexText(latest))
		if err != nil {
			slog.Error("Failed to embed post", "post_id", id, "error", err)
			return
		}

		// 3. 向量化期间可能已被删除，删除任务会等锁，这里再确认一次
		if _, err := s.repo.GetByID(bgCtx, id); errors.Is(err, repository.ErrNotFound) {
			slog.Debug("post deleted while embedding, skipped", "post_id", id)
			return
		}
		if err := s.index.Save(bgCtx, latest, vector); err != nil {
			slog.Error("Failed to index post", "post_id", id, "error", err)
			return
		}
		slog.Debug("post indexed", "post_id", id)
	}()
}

func indexText(post *model.Post) string {
	return post.Title + "\n\n" + post.Content
}

func mapPostErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrPostNotFound
	case errors.Is(err, repository.ErrNotOwner):
		return ErrForbidden
	case errors.Is(err, repository.ErrDuplicateKey):
		return ErrAlreadyLiked
	default:
		return err
	}
}
