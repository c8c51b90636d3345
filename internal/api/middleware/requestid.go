package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey context에 저장되는 요청 ID 키
const RequestIDKey = "requestId"

// RequestIDHeader 응답에 실리는 요청 ID 헤더
const RequestIDHeader = "X-Request-ID"

// RequestID 요청마다 고유 ID를 부여하는 미들웨어 (로그 상관관계용)
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
