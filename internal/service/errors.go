package service

import "errors"

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")

	ErrPostNotFound   = errors.New("post not found")
	ErrForbidden      = errors.New("only the author can modify this post")
	ErrAlreadyLiked   = errors.New("post already liked by user")
	ErrSearchDisabled = errors.New("similar post search is not enabled")
)
