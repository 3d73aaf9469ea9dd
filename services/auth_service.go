package services

import (
	"errors"
	"time"

	"courtside/courtside/database"
	"courtside/courtside/models"
	"courtside/courtside/utils/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Use the JWTClaims from token package
type JWTClaims = token.JWTClaims

type AuthServiceInterface interface {
	Register(db *database.Database, email, password, displayName string) (models.User, error)
	Login(db *database.Database, email, password string) (string, models.User, error)
	ValidateToken(tokenString string) (*JWTClaims, error)
	HashPassword(password string) (string, error)
	ComparePasswords(hashedPassword, password string) error
}

type AuthService struct {
	jwtSecret     []byte
	jwtExpiration time.Duration
}

func NewAuthService(jwtSecret string, jwtExpirationHours int) *AuthService {
	return &AuthService{
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: time.Duration(jwtExpirationHours) * time.Hour,
	}
}

func (s *AuthService) Register(db *database.Database, email, password, displayName string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, ErrInvalidInput
	}

	var existing models.User
	err := db.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return models.User{}, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:             uuid.New(),
		Email:          email,
		PasswordHash:   hash,
		DisplayName:    displayName,
		FavoriteEvents: []string{},
		FavoriteTeams:  []string{},
		FavoriteSports: []string{},
	}
	if err := db.DB.Create(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (s *AuthService) Login(db *database.Database, email, password string) (string, models.User, error) {
	var user models.User
	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	if err := s.ComparePasswords(user.PasswordHash, password); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	tokenString, err := token.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		return "", models.User{}, err
	}

	return tokenString, user, nil
}

// ValidateToken uses the token utility to validate tokens
func (s *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	return token.ValidateToken(tokenString, s.jwtSecret)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var AuthServiceInstance AuthServiceInterface
