package dto

import authdomain "kaisey-backend/internal/auth/domain"

type DemoLoginRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email" binding:"omitempty,email"`
	OpenAIKey string `json:"openai_key"`
}

// GoogleLoginRequest carries a calendar token obtained by the client
type GoogleLoginRequest struct {
	Token     authdomain.TokenBundle `json:"token"`
	OpenAIKey string                 `json:"openai_key"`
}

type ExchangeCodeRequest struct {
	Code      string `json:"code" binding:"required"`
	OpenAIKey string `json:"openai_key"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type OpenAIKeyRequest struct {
	Key string `json:"key"`
}

type TokenResponse struct {
	AccessToken       string           `json:"access_token"`
	RefreshToken      string           `json:"refresh_token"`
	SessionID         string           `json:"session_id"`
	User              *authdomain.User `json:"user"`
	Demo              bool             `json:"demo"`
	CalendarConnected bool             `json:"calendar_connected"`
}

type MeResponse struct {
	UserID            string             `json:"user_id"`
	SessionID         string             `json:"session_id"`
	Profile           authdomain.Profile `json:"profile"`
	Demo              bool               `json:"demo"`
	CalendarConnected bool               `json:"calendar_connected"`
	HasOpenAIKey      bool               `json:"has_openai_key"`
	Today             string             `json:"today"`
}
