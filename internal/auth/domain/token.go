package domain

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

// CalendarTokenKey is the stored-token key of the Google Calendar credential
const CalendarTokenKey = "google_calendar_token"

// expiryMarginMs treats a token as expired five minutes early
const expiryMarginMs = 5 * 60 * 1000

// TokenBundle is the calendar OAuth credential kept per user
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
	Scope        string `json:"scope"`
	Timestamp    int64  `json:"timestamp"` // ms since epoch when issued
	RefreshToken string `json:"refresh_token,omitempty"`
	IsDemo       bool   `json:"is_demo,omitempty"`
}

// Expired reports whether the bundle is at or past its expiry minus the margin
func (t *TokenBundle) Expired(now time.Time) bool {
	if t == nil {
		return true
	}
	return !(now.UnixMilli()-t.Timestamp < t.ExpiresIn*1000-expiryMarginMs)
}

// Connected reports whether the bundle can be used against the remote calendar
func (t *TokenBundle) Connected(now time.Time) bool {
	return t != nil && t.AccessToken != "" && !t.IsDemo && !t.Expired(now)
}

// OAuth2Token converts the bundle for use with an oauth2 token source
func (t *TokenBundle) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = time.UnixMilli(t.Timestamp).Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

// BundleFromOAuth2 builds a bundle from an exchanged token, stamped at now
func BundleFromOAuth2(tok *oauth2.Token, now time.Time) *TokenBundle {
	b := &TokenBundle{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Timestamp:    now.UnixMilli(),
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		b.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		b.ExpiresIn = int64(tok.Expiry.Sub(now).Seconds())
	}
	return b
}

// Marshal serializes the bundle for the token store
func (t *TokenBundle) Marshal() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ParseTokenBundle reads a bundle written by Marshal
func ParseTokenBundle(raw string) (*TokenBundle, error) {
	var t TokenBundle
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// StoredToken persists a serialized credential per user and name
type StoredToken struct {
	UserID    string    `json:"user_id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"primaryKey"`
	Value     string    `json:"-" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StoredToken) TableName() string {
	return "stored_tokens"
}
