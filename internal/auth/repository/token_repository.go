package repository

import (
	"errors"
	"time"

	authdomain "kaisey-backend/internal/auth/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenRepository implements TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new instance of tokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{
		db: db,
	}
}

// Save inserts or overwrites the value stored under (userID, key)
func (r *tokenRepository) Save(userID, key, value string) error {
	token := &authdomain.StoredToken{
		UserID:    userID,
		Name:      key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(token).Error
}

func (r *tokenRepository) Get(userID, key string) (string, bool, error) {
	var token authdomain.StoredToken
	err := r.db.Where("user_id = ? AND name = ?", userID, key).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return token.Value, true, nil
}

func (r *tokenRepository) Delete(userID, key string) error {
	return r.db.Where("user_id = ? AND name = ?", userID, key).Delete(&authdomain.StoredToken{}).Error
}
