package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("INKPOST_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("MONGO_URI", "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, 6, cfg.Posts.DefaultPageSize)
	assert.False(t, cfg.Qdrant.Enabled)
}

func TestLoadConfig_LegacyEnvNames(t *testing.T) {
	t.Setenv("INKPOST_AUTH_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "legacy")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("BASE_URL", "http://localhost:3000")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "legacy", cfg.Auth.JWTSecret)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "http://localhost:3000", cfg.Server.BaseURL)
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: ":8080"
storage:
  driver: sqlite
database:
  dsn: "file::memory:"
auth:
  jwt_secret: from-file
  token_ttl: 30m
posts:
  default_page_size: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("INKPOST_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Posts.DefaultPageSize)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	// 空环境变量视为未设置
	t.Setenv("INKPOST_AUTH_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Storage: StorageConfig{Driver: "mongo"},
			Mongo:   MongoConfig{URI: "mongodb://localhost"},
			Auth:    AuthConfig{JWTSecret: "x", TokenTTL: time.Hour, BcryptCost: 10},
			Posts:   PostsConfig{DefaultPageSize: 6, MaxPageSize: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: "unknown storage.driver"},
		{name: "sql without dsn", mutate: func(c *Config) { c.Storage.Driver = "mysql" }, wantErr: "database.dsn"},
		{name: "bad bcrypt cost", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }, wantErr: "bcrypt_cost"},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: "token_ttl"},
		{name: "max below default", mutate: func(c *Config) { c.Posts.MaxPageSize = 3 }, wantErr: "max_page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServerConfig_ListenAddr(t *testing.T) {
	assert.Equal(t, ":5000", ServerConfig{Port: "5000"}.ListenAddr())
	assert.Equal(t, ":5000", ServerConfig{Port: ":5000"}.ListenAddr())
	assert.Equal(t, "127.0.0.1:5000", ServerConfig{Port: "127.0.0.1:5000"}.ListenAddr())
}
