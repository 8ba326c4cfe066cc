package services

import (
	"fmt"
	"time"

	"vrf-flip-backend/internal/config"
	"vrf-flip-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Authority string `json:"authority"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// JWTService issues player session tokens.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{secret: []byte(cfg.JWTSecret), expiry: cfg.JWTExpiry}
}

func (s *JWTService) GenerateToken(authority string) (string, error) {
	now := time.Now()
	claims := Claims{
		Authority: authority,
		SessionID: models.GenerateSessionID(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   authority,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Authority == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
