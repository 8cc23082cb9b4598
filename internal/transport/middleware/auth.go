package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// EmailHeader carries the caller identity set by the upstream auth proxy.
const EmailHeader = "X-User-Email"

const emailKey = "user_email"

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader(EmailHeader))
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + EmailHeader + " header"})
			return
		}
		c.Set(emailKey, email)
		c.Next()
	}
}

func UserEmail(c *gin.Context) string {
	return c.GetString(emailKey)
}
