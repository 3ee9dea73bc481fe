package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kathaipom/internal/config"
	"kathaipom/internal/model"
)

// AuthService issues access tokens. Tokens are validated by the auth middleware.
type AuthService struct {
	config *config.Config
	now    func() time.Time
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		config: cfg,
		now:    time.Now,
	}
}

// GenerateAccessToken signs an HS256 token carrying the user id.
func (s *AuthService) GenerateAccessToken(userID string) (*model.AccessToken, error) {
	if userID == "" {
		return nil, fmt.Errorf("generate access token: empty user id")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &model.AccessToken{
		Token:     signed,
		ExpiresIn: s.config.AccessTokenMaxAge,
	}, nil
}
