package repository

import (
	"errors"
	"time"

	authdomain "kaisey-backend/internal/auth/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

// UpsertByEmail creates the user or refreshes the profile fields of the
// existing row with the same email. user.ID is set to the stored id.
func (r *userRepository) UpsertByEmail(user *authdomain.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing authdomain.User
		err := tx.Where("email = ?", user.Email).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if user.ID == "" {
				user.ID = uuid.New().String()
			}
			return tx.Create(user).Error
		}
		if err != nil {
			return err
		}

		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = time.Now()
		return tx.Save(user).Error
	})
}

func (r *userRepository) FindByID(id string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// StoreRefreshToken adds a refresh token for a new session. Other sessions of
// the same user keep their tokens; only expired ones are removed.
func (r *userRepository) StoreRefreshToken(token *authdomain.RefreshToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND expires_at < ?", token.UserID, time.Now()).Delete(&authdomain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

// ConsumeRefreshToken deletes the token and returns the row it held, or nil
// when the token is unknown or was already used
func (r *userRepository) ConsumeRefreshToken(token string) (*authdomain.RefreshToken, error) {
	var stored authdomain.RefreshToken
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", token).First(&stored).Error; err != nil {
			return err
		}
		return tx.Where("token = ?", token).Delete(&authdomain.RefreshToken{}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *userRepository) RevokeRefreshToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&authdomain.RefreshToken{}).Error
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
