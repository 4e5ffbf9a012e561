package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/pkg/response"
)

// BodyLimit 请求体大小限制
// 超限时读取请求体会返回 *http.MaxBytesError，由各处理器的绑定错误分支处理
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			if c.Request.ContentLength > maxBytes {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
				c.Abort()
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
