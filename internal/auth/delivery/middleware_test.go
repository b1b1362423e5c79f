package delivery

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"kaisey-backend/internal/auth/usecase"
	"kaisey-backend/internal/session"

	"github.com/gin-gonic/gin"
)

type stubAuth struct {
	usecase.AuthUsecase
	sess *session.Session
}

func (s *stubAuth) ValidateToken(token string) (*session.Session, error) {
	if token != "good" {
		return nil, usecase.ErrInvalidToken
	}
	return s.sess, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := &stubAuth{sess: session.New("s1", "u1", session.Options{Demo: true})}
	r.GET("/me", AuthMiddleware(auth), func(c *gin.Context) {
		sess := CurrentSession(c)
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("userID"), "session": sess.ID})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "Bearer good", "", http.StatusOK},
		{"query token", "", "?access_token=good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}
