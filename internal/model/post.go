package model

import (
	"encoding/json"
	"time"
)

// Post 帖子领域模型，存储层无关
// AuthorID 不可变；Author 只有在查询时展开 (populate) 后才有值
type Post struct {
	ID        string
	Title     string
	Content   string
	AuthorID  string
	Author    *Author
	Likes     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostPatch 更新帖子时的可选字段，空字符串表示保留原值
type PostPatch struct {
	Title   string
	Content string
}

// IsEmpty 没有任何需要修改的字段
func (p PostPatch) IsEmpty() bool {
	return p.Title == "" && p.Content == ""
}

type postJSON struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    any       `json:"author"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MarshalJSON 保持和旧版前端一致的结构:
// author 未展开时是作者 id，展开后是 {_id, username, email}
func (p Post) MarshalJSON() ([]byte, error) {
	out := postJSON{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Author:    p.AuthorID,
		Likes:     p.Likes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Author != nil {
		out.Author = p.Author
	}
	if out.Likes == nil {
		out.Likes = []string{}
	}
	return json.Marshal(out)
}
