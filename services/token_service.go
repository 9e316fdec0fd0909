package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/LeeRude11/delivery/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	// AuthTokenTTL matches the lifetime of the auth cookie.
	AuthTokenTTL  = 14 * 24 * time.Hour
	authTokenType = "session"
)

// AuthClaims is what a validated auth token tells us about its user.
type AuthClaims struct {
	UserID       string
	Role         string
	PasswordHash string
}

// TokenService is responsible for creating and validating JWTs.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = AuthTokenTTL
	}
	return &TokenService{secretKey: []byte(secret), ttl: ttl}
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

// Generate issues a token for user. The token embeds a fingerprint of the
// password hash so changing the password invalidates older tokens.
func (s *TokenService) Generate(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role(),
		"pwh":  PasswordFingerprint(user.Password),
		"typ":  authTokenType,
		"exp":  now.Add(s.ttl).Unix(),
		"iat":  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Validate parses and validates a token string.
func (s *TokenService) Validate(tokenStr string) (*AuthClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if typ, ok := claims["typ"].(string); !ok || typ != authTokenType {
		return nil, fmt.Errorf("invalid token type")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("invalid token: sub claim is missing")
	}
	role, _ := claims["role"].(string)
	pwh, _ := claims["pwh"].(string)

	return &AuthClaims{UserID: sub, Role: role, PasswordHash: pwh}, nil
}

// PasswordFingerprint is a short digest of a password hash, safe to put in a
// token.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
