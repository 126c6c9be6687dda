package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== 服务令牌配置 ====================

// ServiceAuthConfig 调用方鉴权配置
// Secret 为空时不做校验（本地/内网部署）
type ServiceAuthConfig struct {
	Secret string // HS256 签名密钥
	Issuer string // 期望的签发者，空则不校验
}

// Enabled 是否启用鉴权
func (c ServiceAuthConfig) Enabled() bool {
	return c.Secret != ""
}

// ==================== Claims 定义 ====================

// ServiceClaims 服务调用方声明（调度器 / 平台后端）
type ServiceClaims struct {
	Caller string `json:"caller"`
	jwt.RegisteredClaims
}

// ==================== Token 生成 ====================

// GenerateServiceToken 签发服务令牌，供调度器和测试使用
func GenerateServiceToken(cfg ServiceAuthConfig, caller string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &ServiceClaims{
		Caller: caller,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "service",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ==================== Token 解析 ====================

// ParseServiceToken 解析并校验服务令牌
func ParseServiceToken(cfg ServiceAuthConfig, tokenString string) (*ServiceClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ServiceClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// ContextKeyCaller 调用方名称
const ContextKeyCaller = "caller"

// ServiceAuth 服务令牌认证中间件
func ServiceAuth(cfg ServiceAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未提供认证信息"})
			return
		}

		// 解析 Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "认证格式错误，应为 Bearer {token}"})
			return
		}

		claims, err := ParseServiceToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token 无效或已过期"})
			return
		}
		if claims.Subject != "service" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token 类型错误"})
			return
		}

		c.Set(ContextKeyCaller, claims.Caller)
		c.Next()
	}
}

// GetCaller 从 Context 获取调用方
func GetCaller(c *gin.Context) string {
	if caller, exists := c.Get(ContextKeyCaller); exists {
		return caller.(string)
	}
	return ""
}
