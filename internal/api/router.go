package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leon37/Inkpost/internal/api/controller"
	"github.com/leon37/Inkpost/internal/api/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/leon37/Inkpost/docs"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, verifier middleware.TokenVerifier, authCtrl *controller.AuthController, postCtrl *controller.PostController) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authCtrl.Register)
		auth.POST("/login", authCtrl.Login)
	}

	requireAuth := middleware.JWTAuth(verifier)

	posts := r.Group("/api/posts")
	{
		posts.GET("", postCtrl.List)
		posts.GET("/:id", postCtrl.Get)
		posts.GET("/:id/similar", postCtrl.Similar)

		posts.POST("", requireAuth, postCtrl.Create)
		posts.PUT("/:id", requireAuth, postCtrl.Update)
		posts.DELETE("/:id", requireAuth, postCtrl.Delete)
		posts.POST("/like/:id", requireAuth, postCtrl.Like)
	}
}
