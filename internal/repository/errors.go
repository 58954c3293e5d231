package repository

import "errors"

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey 违反唯一约束 (重复邮箱、重复点赞)
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotOwner 记录存在但不属于当前用户
	ErrNotOwner = errors.New("record owned by another user")
)
