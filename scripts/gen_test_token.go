// 生成联调用的 JWT Token，密钥和有效期取自服务配置
//
//	go run scripts/gen_test_token.go -f app/event/api/etc/event-api.yaml -uid 10001
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/zeromicro/go-zero/core/conf"
)

type authConfig struct {
	Auth struct {
		AccessSecret string
		AccessExpire int64 `json:",default=7200"`
	}
}

var (
	configFile = flag.String("f", "app/event/api/etc/event-api.yaml", "配置文件路径")
	userID     = flag.Int64("uid", 10001, "用户ID")
	expire     = flag.Duration("expire", 0, "有效期，默认使用配置中的 AccessExpire")
)

func main() {
	flag.Parse()

	var c authConfig
	conf.MustLoad(*configFile, &c)

	ttl := *expire
	if ttl <= 0 {
		ttl = time.Duration(c.Auth.AccessExpire) * time.Second
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": *userID,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.Auth.AccessSecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "生成 Token 失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("用户ID: %d\n", *userID)
	fmt.Printf("过期时间: %s\n", now.Add(ttl).Format("2006-01-02 15:04:05"))
	fmt.Printf("Authorization: Bearer %s\n", token)
}
