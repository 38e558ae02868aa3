/*
 * @module api/middleware/api_key_auth
 * @description API密钥鉴权中间件，校验数据共享接口的访问密钥
 * @architecture 中间件模式 - HTTP请求拦截和验证
 * @stateFlow 密钥提取 -> 密钥验证 -> 上下文注入 -> 下一个处理器
 * @documentReference ai_docs/warehouse_requirements.md
 * @rules 密钥通过X-API-Key头或Authorization Bearer头传递，验证失败统一返回401
 * @dependencies net/http, github.com/go-chi/render
 * @refs service/sharing, api/routes.go
 */

package middleware

import (
	"context"
	"net/http"
	"strings"

	"energyhub-service/service/sharing"

	"github.com/go-chi/render"
)

// ContextKey 上下文键类型
type ContextKey string

// ApiKeyNameKey 密钥名称在上下文中的键
const ApiKeyNameKey ContextKey = "api_key_name"

// ApiKeyAuthMiddleware API密钥认证中间件
type ApiKeyAuthMiddleware struct {
	keyService *sharing.ApiKeyService
}

// NewApiKeyAuthMiddleware 创建API密钥认证中间件实例
func NewApiKeyAuthMiddleware(keyService *sharing.ApiKeyService) *ApiKeyAuthMiddleware {
	return &ApiKeyAuthMiddleware{keyService: keyService}
}

// extractKey 从请求头提取密钥，优先X-API-Key，其次Authorization Bearer
func extractKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Middleware 返回鉴权处理器
func (m *ApiKeyAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.keyService == nil {
			next.ServeHTTP(w, r)
			return
		}

		plainKey := extractKey(r)
		if plainKey == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]interface{}{
				"status": http.StatusUnauthorized,
				"msg":    "缺少API密钥",
			})
			return
		}

		key, err := m.keyService.Verify(plainKey)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]interface{}{
				"status": http.StatusUnauthorized,
				"msg":    "API密钥验证失败: " + err.Error(),
			})
			return
		}

		ctx := context.WithValue(r.Context(), ApiKeyNameKey, key.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
