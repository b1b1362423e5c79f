package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/oauth2"

	authdomain "kaisey-backend/internal/auth/domain"
	authrepo "kaisey-backend/internal/auth/repository"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/gcal"
)

// ErrNotConnected is returned for sessions without a usable calendar token
var ErrNotConnected = errors.New("calendar not connected")

type googleCalendarFactory struct {
	service *gcal.Service
	tokens  authrepo.TokenRepository
}

// NewGoogleCalendarFactory creates a factory that keeps refreshed tokens in
// both the session and the token store
func NewGoogleCalendarFactory(service *gcal.Service, tokens authrepo.TokenRepository) RemoteCalendarFactory {
	return &googleCalendarFactory{service: service, tokens: tokens}
}

func (f *googleCalendarFactory) ForSession(ctx context.Context, sess *session.Session) (RemoteCalendar, error) {
	if !sess.Connected() {
		return nil, ErrNotConnected
	}
	bundle := sess.Token()

	onRefresh := func(tok *oauth2.Token) error {
		refreshed := authdomain.BundleFromOAuth2(tok, time.Now())
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = bundle.RefreshToken
		}
		sess.SetToken(refreshed)
		if f.tokens == nil {
			return nil
		}
		raw, err := refreshed.Marshal()
		if err != nil {
			return err
		}
		if err := f.tokens.Save(sess.UserID, authdomain.CalendarTokenKey, raw); err != nil {
			log.Printf("[Calendar] Failed to persist refreshed token for user %s: %v", sess.UserID, err)
			return err
		}
		return nil
	}

	return f.service.NewClient(ctx, bundle.OAuth2Token(), onRefresh)
}
