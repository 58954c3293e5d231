package model

import "time"

// PostEntity 是关系型后端 (MySQL / Postgres / SQLite) 的 posts 表
type PostEntity struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Content   string    `gorm:"type:text;not null"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (PostEntity) TableName() string {
	return "posts"
}

// PostLikeEntity 点赞关系，(post_id, user_id) 唯一索引保证同一用户只能点赞一次
type PostLikeEntity struct {
	ID        uint   `gorm:"primaryKey"`
	PostID    string `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_likes_post_user"`
	UserID    string `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_likes_post_user"`
	CreatedAt time.Time
}

func (PostLikeEntity) TableName() string {
	return "post_likes"
}

// ToPost 转换为领域模型，likes 与 author 由仓储层另行填充
func (e *PostEntity) ToPost() *Post {
	return &Post{
		ID:        e.ID,
		Title:     e.Title,
		Content:   e.Content,
		AuthorID:  e.AuthorID,
		Likes:     []string{},
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
