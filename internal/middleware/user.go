package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDHeader 는 호출 사용자 식별 헤더 키다.
const UserIDHeader = "X-User-ID"

// AnonymousUserID 는 사용자 헤더가 없을 때의 식별자다.
const AnonymousUserID = "anonymous"

const (
	userIDKey      = "user_id"
	maxUserIDBytes = 128
)

// UserIdentity 는 X-User-ID 헤더로 사용자 식별자를 컨텍스트에 기록한다.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" || len(userID) > maxUserIDBytes {
			userID = AnonymousUserID
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID: 컨텍스트의 사용자 식별자를 반환합니다. 미들웨어가 없으면 anonymous 입니다.
func GetUserID(c *gin.Context) string {
	if c == nil {
		return AnonymousUserID
	}
	if userID := c.GetString(userIDKey); userID != "" {
		return userID
	}
	return AnonymousUserID
}
