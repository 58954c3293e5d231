package controller

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leon37/Inkpost/internal/api/middleware"
	"github.com/leon37/Inkpost/internal/api/response"
	"github.com/leon37/Inkpost/internal/model"
	"github.com/leon37/Inkpost/internal/repository"
	"github.com/leon37/Inkpost/internal/service"
)

type PostController struct {
	service *service.PostService // 依赖 Service
}

// NewPostController 构造函数
func NewPostController(s *service.PostService) *PostController {
	return &PostController{service: s}
}

type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
}

type UpdatePostRequest struct {
	Title   string `json:"title" binding:"max=255"`
	Content string `json:"content"`
}

// ListRequest 列表请求参数
type ListRequest struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=6" binding:"min=1,max=100"`
}

type ListResponse struct {
	Posts      []model.Post `json:"posts"`
	TotalPages int          `json:"totalPages"`
}

type LikeResponse struct {
	Likes int `json:"likes"`
}

type SimilarRequest struct {
	Limit int `form:"limit,default=5" binding:"min=1,max=50"`
}

type SimilarResponse struct {
	Posts []repository.SimilarPost `json:"posts"`
}

// Create 发帖
// @Summary 发帖
// @Tags Post
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body CreatePostRequest true "帖子内容"
// @Success 201 {object} model.Post
// @Failure 400 {object} response.MessageResponse
// @Failure 401 {object} response.MessageResponse
// @Failure 500 {object} response.MessageResponse
// @Router /posts [post]
func (ctrl *PostController) Create(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	post, err := ctrl.service.Create(c.Request.Context(), userID, service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		slog.Error("create post failed", "userID", userID, "error", err)
		response.Error(c, http.StatusInternalServerError, "Error creating post")
		return
	}

	response.Created(c, post)
}

// List 帖子列表
// @Summary 获取帖子列表
// @Description 按发布顺序分页，作者展开为 username/email
// @Tags Post
// @Produce json
// @Param page query int false "页码，从 1 开始" default(1)
// @Param limit query int false "每页数量" default(6)
// @Success 200 {object} controller.ListResponse
// @Failure 400 {object} response.MessageResponse
// @Failure 500 {object} response.MessageResponse
// @Router /posts [get]
func (ctrl *PostController) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	page, err := ctrl.service.List(c.Request.Context(), req.Page, req.Limit)
	if err != nil {
		slog.Error("获取帖子列表失败", "error", err)
		response.Error(c, http.StatusInternalServerError, "Error fetching posts.")
		return
	}

	response.Success(c, ListResponse{Posts: page.Posts, TotalPages: page.TotalPages})
}

// Get 帖子详情
// @Summary 获取单个帖子
// @Tags Post
// @Produce json
// @Param id path string true "帖子 ID"
// @Success 200 {object} model.Post
// @Failure 404 {object} response.MessageResponse
// @Failure 500 {object} response.MessageResponse
// @Router /posts/{id} [get]
func (ctrl *PostController) Get(c *gin.Context) {
	post, err := ctrl.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ctrl.fail(c, err, "Error fetching post")
		return
	}
	response.Success(c, post)
}

// Update 更新帖子
// @Summary 更新帖子
// @Description 仅限作者本人操作，未传的字段保持不变
// @Tags Post
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "帖子 ID"
// @Param request body UpdatePostRequest true "更新参数"
// @Success 200 {object} model.Post
// @Failure 400 {object} response.MessageResponse
// @Failure 401 {object} response.MessageResponse
// @Failure 403 {object} response.MessageResponse
// @Failure 404 {object} response.MessageResponse
// @Failure 500 {object} response.MessageResponse
// @Router /posts/{id} [put]
func (ctrl *PostController) Update(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	// 两个字段都是可选的，没有 body 等同于不修改任何字段
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	post, err := ctrl.service.Update(c.Request.Context(), c.Param("id"), userID, service.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		ctrl.fail(c, err, "Error updating post")
		return
	}
	response.Success(c, post)
}

// Delete 删除帖子
// @Summary 删除帖子
// @Description 仅限作者本人操作
// @Tags Post
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "帖子 ID"
// @Success 200 {object} response.MessageResponse
// @Failure 401 {object} response.MessageResponse
// @Failure 403 {object} response.MessageResponse
// @Failure 404 {object} response.MessageResponse
// @Failure 500 {object} response.MessageResponse
// @Router /posts/{id} [delete]
func (ctrl *PostController) Delete(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	if err := ctrl.service.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		ctrl.fail(c, err, "Error deleting post")
		return
	}
	response.Message(c, http.StatusOK, "Post deleted successfully")
}

// Like 点赞
// @Summary 点赞帖子
// @Description 每个用户只能点赞一次，没有取消点赞
// @Tags Post
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "帖子 ID"
// @Success 200 {object} controller.LikeResponse
// @Failure 400 {object} response.MessageResponse "已经点过赞"
// @Failure 401 {object} response.MessageResponse
// @Failure 404 {object} response.MessageResponse
// @Failure 500 {object} response.MessageResponse
// @Router /posts/like/{id} [post]
func (ctrl *PostController) Like(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	count, err := ctrl.service.Like(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		ctrl.fail(c, err, "Error liking post")
		return
	}
	response.Success(c, LikeResponse{Likes: count})
}

// Similar 相似帖子
// @Summary 相似帖子推荐
// @Description 基于内容向量检索，需要开启 qdrant
// @Tags Post
// @Produce json
// @Param id path string true "帖子 ID"
// @Param limit query int false "返回数量" default(5)
// @Success 200 {object} controller.SimilarResponse
// @Failure 404 {object} response.MessageResponse
// @Failure 501 {object} response.MessageResponse
// @Failure 500 {object} response.MessageResponse
// @Router /posts/{id}/similar [get]
func (ctrl *PostController) Similar(c *gin.Context) {
	var req SimilarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid limit")
		return
	}

	posts, err := ctrl.service.Similar(c.Request.Context(), c.Param("id"), req.Limit)
	if err != nil {
		ctrl.fail(c, err, "Error searching similar posts")
		return
	}
	response.Success(c, SimilarResponse{Posts: posts})
}

// fail 领域错误映射成对应状态码，其它错误统一 500
func (ctrl *PostController) fail(c *gin.Context, err error, internalMsg string) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.Error(c, http.StatusNotFound, "Post not found")
	case errors.Is(err, service.ErrForbidden):
		response.Error(c, http.StatusForbidden, "Unauthorized")
	case errors.Is(err, service.ErrAlreadyLiked):
		response.Error(c, http.StatusBadRequest, "You already liked this post")
	case errors.Is(err, service.ErrSearchDisabled):
		response.Error(c, http.StatusNotImplemented, "Similar post search is not enabled")
	default:
		slog.Error("post request failed", "path", c.FullPath(), "id", c.Param("id"), "error", err)
		response.Error(c, http.StatusInternalServerError, internalMsg)
	}
}
