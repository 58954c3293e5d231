package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Posts    PostsConfig    `mapstructure:"posts"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	OpenAI   ModelConfig    `mapstructure:"openai"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"` // 前端地址，用于 CORS
	Mode    string `mapstructure:"mode"`     // debug / release / test
}

// StorageConfig 选择持久化后端: mongo | mysql | postgres | sqlite
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type MongoConfig struct {
	URI     string        `mapstructure:"uri"`
	DBName  string        `mapstructure:"db_name"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"` // silent / error / warn / info
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type PostsConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

type QdrantConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	CollectionName string `mapstructure:"collection_name"`
	VectorSize     uint64 `mapstructure:"vector_size"`
}

type ModelConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

const envPrefix = "INKPOST"

// legacyEnv 兼容老版本 Node 服务使用的环境变量名
var legacyEnv = map[string]string{
	"auth.jwt_secret": "JWT_SECRET",
	"mongo.uri":       "MONGO_URI",
	"server.port":     "PORT",
	"server.base_url": "BASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":5000")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("storage.driver", "mongo")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.db_name", "inkpost")
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("posts.default_page_size", 6)
	v.SetDefault("posts.max_page_size", 100)

	v.SetDefault("qdrant.enabled", false)
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.port", 6334)
	v.SetDefault("qdrant.collection_name", "inkpost_posts")
	v.SetDefault("qdrant.vector_size", 1536)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "text-embedding-3-small")
}

// LoadConfig 读取配置: 默认值 < config.yaml < .env / 环境变量
// paths 为 config.yaml 的查找目录，不传时只查当前目录
func LoadConfig(paths ...string) (*Config, error) {
	// .env 不存在是正常情况 (比如在 Docker 里直接注入环境变量)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 例如 INKPOST_AUTH_JWT_SECRET 覆盖 auth.jwt_secret
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查启动必需的配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (set INKPOST_AUTH_JWT_SECRET or JWT_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	// bcrypt 允许的 cost 范围是 [4, 31]
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be within [4, 31], got %d", c.Auth.BcryptCost)
	}
	if c.Posts.DefaultPageSize <= 0 {
		return fmt.Errorf("posts.default_page_size must be positive, got %d", c.Posts.DefaultPageSize)
	}
	if c.Posts.MaxPageSize < c.Posts.DefaultPageSize {
		return fmt.Errorf("posts.max_page_size (%d) is smaller than posts.default_page_size (%d)",
			c.Posts.MaxPageSize, c.Posts.DefaultPageSize)
	}

	switch c.Storage.Driver {
	case "mongo":
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri is required for the mongo storage driver")
		}
	case "mysql", "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s storage driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}

// ListenAddr 返回 gin 监听地址，兼容 PORT=5000 这种不带冒号的写法
func (s ServerConfig) ListenAddr() string {
	if s.Port == "" || strings.Contains(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}
