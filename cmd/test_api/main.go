package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// 手动冒烟测试: 注册 -> 登录 -> 发帖 -> 点赞两次 -> 列表
func main() {
	base := flag.String("base", "http://localhost:5000/api", "API 根地址")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	suffix := time.Now().Format("150405")
	email := "smoke" + suffix + "@example.com"

	// 1. 注册
	call(client, http.MethodPost, *base+"/auth/register", "", map[string]string{
		"username": "smoke" + suffix, "email": email, "password": "pw",
	})

	// 2. 登录
	var login struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	decode(call(client, http.MethodPost, *base+"/auth/login", "", map[string]string{
		"email": email, "password": "pw",
	}), &login)
	fmt.Println("✅ 登录成功, userId:", login.UserID)

	// 3. 发帖
	var post struct {
		ID string `json:"_id"`
	}
	decode(call(client, http.MethodPost, *base+"/posts", login.Token, map[string]string{
		"title": "Hello " + suffix, "content": "smoke test",
	}), &post)
	fmt.Println("✅ 发帖成功, postId:", post.ID)

	// 4. 点赞两次，第二次应该是 400
	call(client, http.MethodPost, *base+"/posts/like/"+post.ID, login.Token, nil)
	call(client, http.MethodPost, *base+"/posts/like/"+post.ID, login.Token, nil)

	// 5. 列表
	call(client, http.MethodGet, *base+"/posts?page=1&limit=6", "", nil)
}

func call(client *http.Client, method, url, token string, payload any) []byte {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		fmt.Println("构造请求失败:", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("请求失败:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	fmt.Printf("[%s %s] %d %s\n", method, url, resp.StatusCode, data)
	return data
}

func decode(data []byte, v any) {
	if err := json.Unmarshal(data, v); err != nil {
		fmt.Println("解析响应失败:", err)
		os.Exit(1)
	}
}
