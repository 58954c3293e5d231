package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/leon37/Inkpost/internal/model"
	"github.com/leon37/Inkpost/internal/repository"
)

type memUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*model.User
	seq     int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*model.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return repository.ErrDuplicateKey
	}
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	cp := *user
	r.byEmail[user.Email] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type memPostRepo struct {
	mu    sync.Mutex
	order []string
	posts map[string]*model.Post
	seq   int
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[string]*model.Post)}
}

func (r *memPostRepo) Create(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	post.ID = fmt.Sprintf("post-%d", r.seq)
	post.Likes = []string{}
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	r.posts[post.ID] = &cp
	r.order = append(r.order, post.ID)
	return nil
}

func (r *memPostRepo) List(_ context.Context, offset, limit int) ([]model.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Post{}
	for i := offset; i < len(r.order) && i < offset+limit; i++ {
		out = append(out, r.copyOf(r.posts[r.order[i]]))
	}
	return out, int64(len(r.order)), nil
}

func (r *memPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := r.copyOf(p)
	return &cp, nil
}

func (r *memPostRepo) UpdateByAuthor(_ context.Context, id, authorID string, patch model.PostPatch) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.AuthorID != authorID {
		return nil, repository.ErrNotOwner
	}
	if patch.Title != "" {
		p.Title = patch.Title
	}
	if patch.Content != "" {
		p.Content = patch.Content
	}
	p.UpdatedAt = time.Now()
	cp := r.copyOf(p)
	return &cp, nil
}

func (r *memPostRepo) DeleteByAuthor(_ context.Context, id, authorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.AuthorID != authorID {
		return repository.ErrNotOwner
	}
	delete(r.posts, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memPostRepo) AddLike(_ context.Context, id, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if slices.Contains(p.Likes, userID) {
		return 0, repository.ErrDuplicateKey
	}
	p.Likes = append(p.Likes, userID)
	return len(p.Likes), nil
}

func (r *memPostRepo) copyOf(p *model.Post) model.Post {
	cp := *p
	cp.Likes = append([]string{}, p.Likes...)
	return cp
}

type stubEmbedder struct {
	err   error
	delay time.Duration // 模拟慢速的 embedding 接口
}

func (e *stubEmbedder) GetVector(ctx context.Context, text string) ([]float32, error) {
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type recordingIndex struct {
	mu      sync.Mutex
	saved   map[string]string // post id -> title
	deleted []string
	results []repository.SimilarPost
	exclude string
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{saved: make(map[string]string)}
}

func (i *recordingIndex) Save(_ context.Context, post *model.Post, _ []float32) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.saved[post.ID] = post.Title
	return nil
}

func (i *recordingIndex) SearchSimilar(_ context.Context, _ []float32, excludeID string, limit int) ([]repository.SimilarPost, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.exclude = excludeID
	if limit < len(i.results) {
		return i.results[:limit], nil
	}
	return i.results, nil
}

func (i *recordingIndex) Delete(_ context.Context, postID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.deleted = append(i.deleted, postID)
	delete(i.saved, postID)
	return nil
}

func (i *recordingIndex) title(id string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	t, ok := i.saved[id]
	return t, ok
}

func (i *recordingIndex) wasDeleted(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, d := range i.deleted {
		if d == id {
			return true
		}
	}
	return false
}
