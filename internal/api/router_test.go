package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leon37/Inkpost/internal/api/controller"
	"github.com/leon37/Inkpost/internal/infrastructure/database"
	"github.com/leon37/Inkpost/internal/repository"
	"github.com/leon37/Inkpost/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newTestServer 用内存 SQLite 组装完整的路由
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewGormConnection("sqlite", "file::memory:", "silent")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	tokens := service.NewTokenManager("test-secret", time.Hour)
	authSvc, err := service.NewAuthService(repository.NewUserRepository(db), tokens, bcrypt.MinCost)
	require.NoError(t, err)
	postSvc := service.NewPostService(repository.NewPostRepository(db), nil, nil, 6, 100)

	r := gin.New()
	RegisterRoutes(r, authSvc, controller.NewAuthController(authSvc), controller.NewPostController(postSvc))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// signup 注册并登录，返回 token 和 userId
func signup(t *testing.T, r *gin.Engine, name string) (string, string) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": name, "email": name + "@x.io", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": name + "@x.io", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	return body["token"].(string), body["userId"].(string)
}

func TestRoutes_Health(t *testing.T) {
	r := newTestServer(t)
	w := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRoutes_Auth(t *testing.T) {
	r := newTestServer(t)

	w := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"username": "a", "email": "a@x.io", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "User registered successfully", decode(t, w)["message"])

	w = do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"username": "a2", "email": "a@x.io", "password": "pw2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decode(t, w)["message"])

	w = do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"username": "b"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.io", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email or password", decode(t, w)["message"])

	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "nobody@x.io", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email or password", decode(t, w)["message"])

	w = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.io", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["userId"])
	assert.Equal(t, "a", body["username"])
}

func TestRoutes_PostLifecycle(t *testing.T) {
	r := newTestServer(t)
	tokenA, idA := signup(t, r, "a")
	tokenB, idB := signup(t, r, "b")

	// 1. 未登录不能发帖
	w := do(t, r, http.MethodPost, "/api/posts", "", gin.H{"title": "T", "content": "C"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access Denied. No token provided.", decode(t, w)["message"])

	w = do(t, r, http.MethodPost, "/api/posts", "garbage", gin.H{"title": "T", "content": "C"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w)["message"])

	// 2. 发帖，author 是作者 id
	w = do(t, r, http.MethodPost, "/api/posts", tokenA, gin.H{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	postID := created["_id"].(string)
	assert.Equal(t, idA, created["author"])
	assert.Equal(t, []any{}, created["likes"])

	w = do(t, r, http.MethodPost, "/api/posts", tokenA, gin.H{"title": "only title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 3. 详情里 author 展开
	w = do(t, r, http.MethodGet, "/api/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	author := decode(t, w)["author"].(map[string]any)
	assert.Equal(t, idA, author["_id"])
	assert.Equal(t, "a", author["username"])
	assert.Equal(t, "a@x.io", author["email"])
	assert.NotContains(t, author, "password")

	// 4. 点赞，重复点赞 400
	w = do(t, r, http.MethodPost, "/api/posts/like/"+postID, "Bearer "+tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["likes"])

	w = do(t, r, http.MethodPost, "/api/posts/like/"+postID, tokenB, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You already liked this post", decode(t, w)["message"])

	w = do(t, r, http.MethodGet, "/api/posts/"+postID, "", nil)
	assert.Equal(t, []any{idB}, decode(t, w)["likes"])

	// 5. 非作者不能修改 / 删除
	w = do(t, r, http.MethodPut, "/api/posts/"+postID, tokenB, gin.H{"title": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["message"])
	w = do(t, r, http.MethodDelete, "/api/posts/"+postID, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["message"])

	// 未登录不能修改 / 删除
	w = do(t, r, http.MethodPut, "/api/posts/"+postID, "", gin.H{"title": "anon"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(t, r, http.MethodDelete, "/api/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 6. 作者修改，未传的字段保留
	w = do(t, r, http.MethodPut, "/api/posts/"+postID, tokenA, gin.H{"title": "T2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.Equal(t, "T2", updated["title"])
	assert.Equal(t, "C", updated["content"])
	assert.Equal(t, idA, updated["author"])

	// 7. 作者删除后 404
	w = do(t, r, http.MethodDelete, "/api/posts/"+postID, tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Post deleted successfully", decode(t, w)["message"])

	w = do(t, r, http.MethodGet, "/api/posts/"+postID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decode(t, w)["message"])

	w = do(t, r, http.MethodPost, "/api/posts/like/"+postID, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodPut, "/api/posts/"+postID, tokenA, gin.H{"title": "again"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_UpdateWithoutBody(t *testing.T) {
	r := newTestServer(t)
	tokenA, idA := signup(t, r, "a")
	tokenB, _ := signup(t, r, "b")

	w := do(t, r, http.MethodPost, "/api/posts", tokenA, gin.H{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := decode(t, w)["_id"].(string)

	// 没有 body 时保留原有字段
	w = do(t, r, http.MethodPut, "/api/posts/"+postID, tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "T", body["title"])
	assert.Equal(t, "C", body["content"])
	assert.Equal(t, idA, body["author"])

	w = do(t, r, http.MethodPut, "/api/posts/"+postID, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPut, "/api/posts/does-not-exist", tokenA, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 非法 JSON 仍然是 400
	req := httptest.NewRequest(http.MethodPut, "/api/posts/"+postID, bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenA)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_ListPagination(t *testing.T) {
	r := newTestServer(t)
	token, _ := signup(t, r, "a")

	for i := 1; i <= 13; i++ {
		w := do(t, r, http.MethodPost, "/api/posts", token, gin.H{"title": fmt.Sprintf("P%d", i), "content": "c"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	tests := []struct {
		query      string
		wantTitles []string
		wantPages  float64
	}{
		{query: "", wantTitles: []string{"P1", "P2", "P3", "P4", "P5", "P6"}, wantPages: 3},
		{query: "?page=3&limit=6", wantTitles: []string{"P13"}, wantPages: 3},
		{query: "?page=5&limit=6", wantTitles: []string{}, wantPages: 3},
		{query: "?page=2&limit=10", wantTitles: []string{"P11", "P12", "P13"}, wantPages: 2},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			w := do(t, r, http.MethodGet, "/api/posts"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Equal(t, tt.wantPages, body["totalPages"])

			titles := []string{}
			for _, p := range body["posts"].([]any) {
				post := p.(map[string]any)
				titles = append(titles, post["title"].(string))
				assert.Equal(t, "a", post["author"].(map[string]any)["username"])
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}

	w := do(t, r, http.MethodGet, "/api/posts?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodGet, "/api/posts?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_SimilarDisabled(t *testing.T) {
	r := newTestServer(t)
	token, _ := signup(t, r, "a")

	w := do(t, r, http.MethodPost, "/api/posts", token, gin.H{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, w.Code)
	postID := decode(t, w)["_id"].(string)

	w = do(t, r, http.MethodGet, "/api/posts/"+postID+"/similar", "", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
