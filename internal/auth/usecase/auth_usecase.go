package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	authdomain "kaisey-backend/internal/auth/domain"
	authdto "kaisey-backend/internal/auth/dto"
	"kaisey-backend/internal/auth/repository"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/ai"
	"kaisey-backend/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	demoEmail = "demo@kaisey.app"
	demoName  = "Demo User"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.TokenRepository
	google      GoogleProvider
	store       *session.Store
	config      *config.Config
	now         func() time.Time
	onLogin     func(ctx context.Context, sess *session.Session) error
	onKeyChange func(sess *session.Session)
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, google GoogleProvider, store *session.Store, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		google:    google,
		store:     store,
		config:    cfg,
		now:       time.Now,
	}
}

func (u *authUsecase) SetLoginCallback(fn func(ctx context.Context, sess *session.Session) error) {
	u.onLogin = fn
}

func (u *authUsecase) SetKeyChangeCallback(fn func(sess *session.Session)) {
	u.onKeyChange = fn
}

func (u *authUsecase) DemoLogin(ctx context.Context, req *authdto.DemoLoginRequest) (*authdto.TokenResponse, error) {
	profile := authdomain.Profile{Name: req.Name, Email: strings.ToLower(strings.TrimSpace(req.Email))}
	if profile.Name == "" {
		profile.Name = demoName
	}
	if profile.Email == "" {
		profile.Email = demoEmail
	}

	user, err := u.upsertUser(profile, authdomain.ProviderDemo)
	if err != nil {
		return nil, err
	}

	sess := u.newSession(user, session.Options{
		Demo:      true,
		Profile:   profile,
		OpenAIKey: u.initialKey(req.OpenAIKey),
	})
	return u.startSession(ctx, user, sess)
}

// GoogleLogin signs in with a calendar token the client obtained itself
func (u *authUsecase) GoogleLogin(ctx context.Context, req *authdto.GoogleLoginRequest) (*authdto.TokenResponse, error) {
	bundle := req.Token
	if bundle.Timestamp == 0 {
		bundle.Timestamp = u.now().UnixMilli()
	}
	if !bundle.Connected(u.now()) {
		return nil, ErrInvalidCalendarToken
	}
	return u.loginWithBundle(ctx, &bundle, req.OpenAIKey)
}

func (u *authUsecase) GoogleAuthURL(state string) (string, error) {
	if u.google == nil || !u.google.Configured() {
		return "", ErrGoogleNotConfigured
	}
	if state == "" {
		state = uuid.New().String()
	}
	return u.google.AuthURL(state), nil
}

// ExchangeCode completes the OAuth consent flow and signs in
func (u *authUsecase) ExchangeCode(ctx context.Context, req *authdto.ExchangeCodeRequest) (*authdto.TokenResponse, error) {
	if u.google == nil || !u.google.Configured() {
		return nil, ErrGoogleNotConfigured
	}
	tok, err := u.google.Exchange(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	return u.loginWithBundle(ctx, authdomain.BundleFromOAuth2(tok, u.now()), req.OpenAIKey)
}

func (u *authUsecase) loginWithBundle(ctx context.Context, bundle *authdomain.TokenBundle, openAIKey string) (*authdto.TokenResponse, error) {
	if u.google == nil {
		return nil, ErrGoogleNotConfigured
	}
	gp, err := u.google.FetchProfile(ctx, bundle.OAuth2Token())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google profile: %w", err)
	}
	profile := profileOf(gp)

	user, err := u.upsertUser(profile, authdomain.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	u.saveCalendarToken(user.ID, bundle)

	sess := u.newSession(user, session.Options{
		Profile:   profile,
		Token:     bundle,
		OpenAIKey: u.initialKey(openAIKey),
	})
	return u.startSession(ctx, user, sess)
}

// RefreshToken rotates the refresh token. When the session is no longer in
// memory it is restored from the stored calendar token.
func (u *authUsecase) RefreshToken(ctx context.Context, refreshToken string) (*authdto.TokenResponse, error) {
	claims, err := u.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	storedToken, err := u.userRepo.ConsumeRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if storedToken == nil || storedToken.ExpiresAt.Before(u.now()) {
		return nil, ErrRefreshTokenExpired
	}

	user, err := u.userRepo.FindByID(claims.userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if sess, err := u.store.Get(claims.sessionID); err == nil {
		return u.generateTokens(user, sess)
	}

	log.Printf("[Auth] Session %s not found, restoring for user %s", claims.sessionID, user.ID)
	sess := u.restoreSession(user)
	return u.startSession(ctx, user, sess)
}

func (u *authUsecase) restoreSession(user *authdomain.User) *session.Session {
	profile := authdomain.Profile{Name: user.Name, Email: user.Email, Picture: user.AvatarURL}
	opts := session.Options{Demo: true, Profile: profile, OpenAIKey: u.initialKey("")}

	if user.Provider == authdomain.ProviderGoogle {
		if bundle := u.loadCalendarToken(user.ID); bundle.Connected(u.now()) {
			opts.Demo = false
			opts.Token = bundle
		}
	}
	return u.newSession(user, opts)
}

// Logout destroys the session, its refresh token and the stored calendar token
func (u *authUsecase) Logout(sessionID, refreshToken string) error {
	var userID string
	if sess, err := u.store.Get(sessionID); err == nil {
		userID = sess.UserID
		u.store.Delete(sessionID)
	}
	if refreshToken != "" {
		if err := u.userRepo.RevokeRefreshToken(refreshToken); err != nil {
			return err
		}
	}
	if userID != "" && u.tokenRepo != nil {
		if err := u.tokenRepo.Delete(userID, authdomain.CalendarTokenKey); err != nil {
			return err
		}
	}
	return nil
}

func (u *authUsecase) ValidateToken(tokenString string) (*session.Session, error) {
	claims, err := u.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	sess, err := u.store.Get(claims.sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.userID {
		return nil, ErrInvalidToken
	}
	return sess, nil
}

func (u *authUsecase) Me(sess *session.Session) *authdto.MeResponse {
	return &authdto.MeResponse{
		UserID:            sess.UserID,
		SessionID:         sess.ID,
		Profile:           sess.Profile(),
		Demo:              sess.Demo,
		CalendarConnected: sess.Connected(),
		HasOpenAIKey:      ai.ValidKey(sess.OpenAIKey()),
		Today:             sess.Today(),
	}
}

func (u *authUsecase) SetOpenAIKey(sess *session.Session, key string) {
	sess.SetOpenAIKey(strings.TrimSpace(key))
	if u.onKeyChange != nil {
		u.onKeyChange(sess)
	}
}

func (u *authUsecase) upsertUser(profile authdomain.Profile, provider string) (*authdomain.User, error) {
	if profile.Email == "" {
		return nil, errors.New("profile has no email")
	}
	user := &authdomain.User{
		Email:     profile.Email,
		Name:      profile.Name,
		AvatarURL: profile.Picture,
		Provider:  provider,
	}
	if err := u.userRepo.UpsertByEmail(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *authUsecase) newSession(user *authdomain.User, opts session.Options) *session.Session {
	opts.Location = u.config.Location()
	opts.Now = u.now
	return session.New(uuid.New().String(), user.ID, opts)
}

func (u *authUsecase) startSession(ctx context.Context, user *authdomain.User, sess *session.Session) (*authdto.TokenResponse, error) {
	u.store.Add(sess)
	if u.onLogin != nil {
		if err := u.onLogin(ctx, sess); err != nil {
			u.store.Delete(sess.ID)
			return nil, err
		}
	}
	log.Printf("[Auth] Session %s started for user %s (demo=%v)", sess.ID, user.ID, sess.Demo)
	return u.generateTokens(user, sess)
}

// initialKey falls back to the server-wide key when the client sends none
func (u *authUsecase) initialKey(key string) string {
	if key = strings.TrimSpace(key); key != "" {
		return key
	}
	return u.config.OpenAIAPIKey
}

func (u *authUsecase) saveCalendarToken(userID string, bundle *authdomain.TokenBundle) {
	if u.tokenRepo == nil {
		return
	}
	raw, err := bundle.Marshal()
	if err == nil {
		err = u.tokenRepo.Save(userID, authdomain.CalendarTokenKey, raw)
	}
	if err != nil {
		log.Printf("[Auth] Failed to store calendar token for user %s: %v", userID, err)
	}
}

func (u *authUsecase) loadCalendarToken(userID string) *authdomain.TokenBundle {
	if u.tokenRepo == nil {
		return nil
	}
	raw, ok, err := u.tokenRepo.Get(userID, authdomain.CalendarTokenKey)
	if err != nil || !ok {
		return nil
	}
	bundle, err := authdomain.ParseTokenBundle(raw)
	if err != nil {
		log.Printf("[Auth] Stored calendar token of user %s is unreadable: %v", userID, err)
		return nil
	}
	return bundle
}

func (u *authUsecase) generateTokens(user *authdomain.User, sess *session.Session) (*authdto.TokenResponse, error) {
	// Generate access token
	accessToken, err := u.generateAccessToken(user, sess.ID)
	if err != nil {
		return nil, err
	}

	// Generate refresh token
	refreshToken, err := u.generateRefreshToken(user, sess.ID)
	if err != nil {
		return nil, err
	}

	// Store refresh token
	refreshTokenEntity := &authdomain.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		SessionID: sess.ID,
		ExpiresAt: u.now().Add(u.config.JWTRefreshExpiry),
	}
	if err := u.userRepo.StoreRefreshToken(refreshTokenEntity); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:       accessToken,
		RefreshToken:      refreshToken,
		SessionID:         sess.ID,
		User:              user,
		Demo:              sess.Demo,
		CalendarConnected: sess.Connected(),
	}, nil
}

func (u *authUsecase) generateAccessToken(user *authdomain.User, sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"session_id": sessionID,
		"email":      user.Email,
		"type":       tokenTypeAccess,
		"exp":        u.now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":        u.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) generateRefreshToken(user *authdomain.User, sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    user.ID,
		"session_id": sessionID,
		"token_id":   uuid.New().String(),
		"type":       tokenTypeRefresh,
		"exp":        u.now().Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":        u.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

type tokenClaims struct {
	userID    string
	sessionID string
}

func (u *authUsecase) parse(tokenString, tokenType string) (*tokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(u.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if t, _ := claims["type"].(string); t != tokenType {
		return nil, ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	sessionID, _ := claims["session_id"].(string)
	if userID == "" || sessionID == "" {
		return nil, ErrInvalidToken
	}
	return &tokenClaims{userID: userID, sessionID: sessionID}, nil
}
