package repository

import authdomain "kaisey-backend/internal/auth/domain"

// UserRepository defines persistence for users and their refresh tokens
type UserRepository interface {
	UpsertByEmail(user *authdomain.User) error
	FindByID(id string) (*authdomain.User, error)
	StoreRefreshToken(token *authdomain.RefreshToken) error
	ConsumeRefreshToken(token string) (*authdomain.RefreshToken, error)
	RevokeRefreshToken(token string) error
}

// TokenRepository stores serialized credentials keyed by user and name
type TokenRepository interface {
	Save(userID, key, value string) error
	Get(userID, key string) (string, bool, error)
	Delete(userID, key string) error
}
