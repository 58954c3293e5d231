package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leon37/Inkpost/internal/api/response"
	"github.com/leon37/Inkpost/internal/service"
)

// AuthController 处理用户认证
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController 构造函数
func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// ==========================================
// DTOs (请求/响应参数定义)
// ==========================================

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=72"` // bcrypt 只处理前 72 字节
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ==========================================
// Handlers
// ==========================================

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户，密码加密存储
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册参数"
// @Success 201 {object} response.MessageResponse
// @Failure 400 {object} response.MessageResponse "参数错误或用户已存在"
// @Failure 500 {object} response.MessageResponse
// @Router /auth/register [post]
func (ctrl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest

	// 1. 参数校验
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("Register params invalid", "err", err)
		response.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	// 2. 业务逻辑
	err := ctrl.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, service.ErrUserExists) {
		response.Error(c, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		slog.Error("Register failed", "email", req.Email, "err", err)
		response.Error(c, http.StatusInternalServerError, "Server error")
		return
	}

	// 3. 成功响应
	slog.Info("User registered", "email", req.Email)
	response.Message(c, http.StatusCreated, "User registered successfully")
}

// Login 用户登录
// @Summary 用户登录
// @Description 校验账号密码，颁发 JWT Token (有效期 1 小时)
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录参数"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} response.MessageResponse "账号或密码错误"
// @Failure 500 {object} response.MessageResponse
// @Router /auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest

	// 1. 参数校验
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	// 2. 业务逻辑
	res, err := ctrl.authService.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		// 为了防止撞库，邮箱不存在和密码错误返回同样的提示
		slog.Warn("Login failed", "email", req.Email)
		response.Error(c, http.StatusBadRequest, "Invalid email or password")
		return
	}
	if err != nil {
		slog.Error("Login failed", "email", req.Email, "err", err)
		response.Error(c, http.StatusInternalServerError, "Server error")
		return
	}

	// 3. 成功响应
	slog.Info("User logged in", "userID", res.UserID)
	response.Success(c, LoginResponse{
		Token:    res.Token,
		UserID:   res.UserID,
		Username: res.Username,
	})
}
