package delivery

import (
	"net/http"
	"strings"

	"kaisey-backend/internal/auth/usecase"
	"kaisey-backend/internal/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		sess, err := authUsecase.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("userID", sess.UserID)
		c.Set("sessionID", sess.ID)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// bearerToken reads the Authorization header. EventSource cannot set
// headers, so the stream endpoint may pass ?access_token= instead.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if t := c.Query("access_token"); t != "" {
			return t, true
		}
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// CurrentSession returns the session set by AuthMiddleware
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
