package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/leon37/Inkpost/internal/model"
	"github.com/leon37/Inkpost/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *TokenManager
	bcryptCost int
	// 邮箱不存在时也做一次 bcrypt 比对，避免通过耗时区分两种失败
	dummyHash []byte
}

// NewAuthService cost 非法时返回错误，否则未知邮箱的登录会跳过 bcrypt 比对
func NewAuthService(userRepo repository.UserRepository, tokens *TokenManager, bcryptCost int) (*AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("inkpost-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("init dummy hash: %w", err)
	}
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// LoginResult 登录成功返回的内容
type LoginResult struct {
	Token    string
	UserID   string
	Username string
}

// Register 注册逻辑
func (s *AuthService) Register(ctx context.Context, username, email, password string) error {
	// 1. 检查是否存在 (唯一索引兜底并发注册)
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	// 2. 密码加密
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// 3. 落库
	user := &model.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Login 登录逻辑，返回 Token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	// 1. 查用户
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials // 模糊报错为了安全
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	// 2. 比对密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 JWT
	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, UserID: user.ID, Username: user.Username}, nil
}

// Verify 校验 Token，返回 userId
func (s *AuthService) Verify(token string) (string, error) {
	return s.tokens.Verify(token)
}
