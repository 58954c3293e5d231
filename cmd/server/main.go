package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leon37/Inkpost/internal/api"
	"github.com/leon37/Inkpost/internal/api/controller"
	"github.com/leon37/Inkpost/internal/api/middleware"
	"github.com/leon37/Inkpost/internal/config"
	"github.com/leon37/Inkpost/internal/infrastructure/database"
	"github.com/leon37/Inkpost/internal/infrastructure/embedding"
	"github.com/leon37/Inkpost/internal/infrastructure/mongodb"
	"github.com/leon37/Inkpost/internal/infrastructure/vectordb"
	"github.com/leon37/Inkpost/internal/repository"
	"github.com/leon37/Inkpost/internal/service"
)

// @title           Inkpost API
// @version         1.0
// @description     基于 Go + Gin + MongoDB 的博客后端

// @host            localhost:5000
// @BasePath        /api

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description 直接填写登录返回的 token (也兼容 "Bearer <token>")

func main() {
	// 1. 初始化 Logger
	// 使用 JSONHandler 可以让日志以 JSON 格式输出，方便解析
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	slog.Info("Inkpost 系统启动中...")

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	if conf.Server.Mode != "" {
		gin.SetMode(conf.Server.Mode)
	}
	if gin.Mode() == gin.ReleaseMode {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}
	slog.Info("配置加载成功", "storage", conf.Storage.Driver, "similar_search", conf.Qdrant.Enabled)

	// 2. Infra Initialization
	userRepo, postRepo, closeStore, err := openStore(conf)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer closeStore()

	var (
		embedder embedding.Provider
		index    repository.PostIndex
	)
	if conf.Qdrant.Enabled {
		vecClient, err := vectordb.NewQdrantClient(conf.Qdrant.Host, conf.Qdrant.Port, conf.Qdrant.CollectionName, conf.Qdrant.VectorSize)
		if err != nil {
			log.Fatalf("Failed to init Vector DB: %v", err)
		}
		defer vecClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = vecClient.InitCollection(ctx)
		cancel()
		if err != nil {
			// 相似推荐是附加功能，建不了集合就降级关闭
			slog.Error("Failed to init Qdrant collection, similar search disabled", "error", err)
		} else {
			embedder = embedding.NewOpenAIClient(conf.OpenAI.APIKey, conf.OpenAI.BaseURL, conf.OpenAI.Model)
			index = vectordb.NewQdrantRepository(vecClient)
		}
	}

	// 3. Layer Wiring (依赖注入)
	tokens := service.NewTokenManager(conf.Auth.JWTSecret, conf.Auth.TokenTTL)
	authSvc, err := service.NewAuthService(userRepo, tokens, conf.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to init auth service: %v", err)
	}
	postSvc := service.NewPostService(postRepo, embedder, index, conf.Posts.DefaultPageSize, conf.Posts.MaxPageSize)

	authController := controller.NewAuthController(authSvc)
	postController := controller.NewPostController(postSvc)

	// 4. Server Start
	r := gin.Default()
	r.Use(middleware.Cors(conf.Server.BaseURL))
	api.RegisterRoutes(r, authSvc, authController, postController)

	addr := conf.Server.ListenAddr()
	slog.Info("Inkpost Web Server 启动中", "addr", addr)
	if err := r.Run(addr); err != nil {
		slog.Error("服务器启动失败", "error", err)
	}
}

// openStore 按 storage.driver 打开对应的持久化后端
func openStore(conf *config.Config) (repository.UserRepository, repository.PostRepository, func(), error) {
	switch conf.Storage.Driver {
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), conf.Mongo.Timeout)
		defer cancel()

		client, db, err := mongodb.NewMongoConnection(ctx, conf.Mongo.URI, conf.Mongo.DBName)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				slog.Error("MongoDB disconnect failed", "error", err)
			}
		}
		return mongodb.NewUserRepository(db), mongodb.NewPostRepository(db), closeFn, nil

	case "mysql", "postgres", "sqlite":
		db, err := database.NewGormConnection(conf.Storage.Driver, conf.Database.DSN, conf.Database.LogLevel)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewUserRepository(db), repository.NewPostRepository(db), closeFn, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
}
