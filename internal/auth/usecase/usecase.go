package usecase

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	authdomain "kaisey-backend/internal/auth/domain"
	authdto "kaisey-backend/internal/auth/dto"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/gcal"
)

var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrUserNotFound         = errors.New("user not found")
	ErrGoogleNotConfigured  = errors.New("google sign-in is not configured")
	ErrInvalidCalendarToken = errors.New("calendar token is missing or expired")
)

// AuthUsecase defines the login and session lifecycle interface
type AuthUsecase interface {
	DemoLogin(ctx context.Context, req *authdto.DemoLoginRequest) (*authdto.TokenResponse, error)
	GoogleLogin(ctx context.Context, req *authdto.GoogleLoginRequest) (*authdto.TokenResponse, error)
	GoogleAuthURL(state string) (string, error)
	ExchangeCode(ctx context.Context, req *authdto.ExchangeCodeRequest) (*authdto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error)
	Logout(sessionID, refreshToken string) error
	ValidateToken(tokenString string) (*session.Session, error)
	Me(sess *session.Session) *authdto.MeResponse
	SetOpenAIKey(sess *session.Session, key string)

	// SetLoginCallback runs fn on every new session before it is returned
	SetLoginCallback(fn func(ctx context.Context, sess *session.Session) error)
	// SetKeyChangeCallback runs fn after a session's AI key changed
	SetKeyChangeCallback(fn func(sess *session.Session))
}

// GoogleProvider is the OAuth side of the Google Calendar adapter
type GoogleProvider interface {
	Configured() bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (gcal.Profile, error)
}

var _ GoogleProvider = (*gcal.Service)(nil)

// profileOf converts a Google profile for display
func profileOf(p gcal.Profile) authdomain.Profile {
	return authdomain.Profile{Name: p.Name, Email: p.Email, Picture: p.Picture}
}
