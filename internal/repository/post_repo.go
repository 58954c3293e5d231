package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leon37/Inkpost/internal/model"
	"gorm.io/gorm"
)

// PostRepository 帖子存储接口 (Mongo / GORM 两套实现)
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	// List 按插入顺序分页，作者信息已展开
	List(ctx context.Context, offset, limit int) ([]model.Post, int64, error)
	// GetByID 作者信息已展开
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// UpdateByAuthor 只有作者本人可以修改，一次条件写完成校验和更新
	UpdateByAuthor(ctx context.Context, id, authorID string, patch model.PostPatch) (*model.Post, error)
	DeleteByAuthor(ctx context.Context, id, authorID string) error
	// AddLike 原子地把 userID 加入点赞集合，已存在时返回 ErrDuplicateKey
	AddLike(ctx context.Context, id, userID string) (int, error)
}

type postRepo struct {
	db *gorm.DB
}

// NewPostRepository GORM 实现
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	now := time.Now()
	entity := &model.PostEntity{
		ID:        id.String(),
		Title:     post.Title,
		Content:   post.Content,
		AuthorID:  post.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return err
	}

	post.ID = entity.ID
	post.Likes = []string{}
	post.CreatedAt = entity.CreatedAt
	post.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *postRepo) List(ctx context.Context, offset, limit int) ([]model.Post, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.PostEntity{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.PostEntity
	err := db.Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	posts, err := hydrate(db, rows, true)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	db := r.db.WithContext(ctx)

	var row model.PostEntity
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	posts, err := hydrate(db, []model.PostEntity{row}, true)
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *postRepo) UpdateByAuthor(ctx context.Context, id, authorID string, patch model.PostPatch) (*model.Post, error) {
	var updated *model.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"updated_at": time.Now()}
		if patch.Title != "" {
			updates["title"] = patch.Title
		}
		if patch.Content != "" {
			updates["content"] = patch.Content
		}

		res := tx.Model(&model.PostEntity{}).
			Where("id = ? AND author_id = ?", id, authorID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// MySQL 在值未变化时 RowsAffected 为 0，需要区分"没改动"和"无权限"
			if err := checkOwner(tx, id, authorID); err != nil {
				return err
			}
		}

		var row model.PostEntity
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		posts, err := hydrate(tx, []model.PostEntity{row}, false)
		if err != nil {
			return err
		}
		updated = &posts[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *postRepo) DeleteByAuthor(ctx context.Context, id, authorID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND author_id = ?", id, authorID).Delete(&model.PostEntity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := checkOwner(tx, id, authorID); err != nil {
				return err
			}
			return ErrNotFound
		}
		return tx.Where("post_id = ?", id).Delete(&model.PostLikeEntity{}).Error
	})
}

func (r *postRepo) AddLike(ctx context.Context, id, userID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.PostEntity
		if err := tx.Select("id").First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// 唯一索引兜底并发点赞
		like := &model.PostLikeEntity{PostID: id, UserID: userID, CreatedAt: time.Now()}
		if err := tx.Create(like).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateKey
			}
			return err
		}

		return tx.Model(&model.PostLikeEntity{}).Where("post_id = ?", id).Count(&count).Error
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// checkOwner 条件写未命中时判断原因
func checkOwner(tx *gorm.DB, id, authorID string) error {
	var row model.PostEntity
	if err := tx.Select("id", "author_id").First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if row.AuthorID != authorID {
		return ErrNotOwner
	}
	return nil
}

// hydrate 填充点赞集合，expand 为 true 时展开作者信息
func hydrate(db *gorm.DB, rows []model.PostEntity, expand bool) ([]model.Post, error) {
	posts := make([]model.Post, 0, len(rows))
	if len(rows) == 0 {
		return posts, nil
	}

	postIDs := make([]string, 0, len(rows))
	authorIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		postIDs = append(postIDs, row.ID)
		authorIDs = append(authorIDs, row.AuthorID)
	}

	var likes []model.PostLikeEntity
	if err := db.Where("post_id IN ?", postIDs).Order("created_at ASC").Find(&likes).Error; err != nil {
		return nil, err
	}
	likesByPost := make(map[string][]string, len(rows))
	for _, l := range likes {
		likesByPost[l.PostID] = append(likesByPost[l.PostID], l.UserID)
	}

	authors := make(map[string]*model.Author)
	if expand {
		var users []model.User
		if err := db.Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			authors[u.ID] = &model.Author{ID: u.ID, Username: u.Username, Email: u.Email}
		}
	}

	for i := range rows {
		post := rows[i].ToPost()
		if l, ok := likesByPost[post.ID]; ok {
			post.Likes = l
		}
		if expand {
			post.Author = authors[post.AuthorID]
		}
		posts = append(posts, *post)
	}
	return posts, nil
}
