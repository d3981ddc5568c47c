package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed or badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for structurally valid but expired tokens.
	ErrExpiredToken = errors.New("expired token")
)

// Claims is the JWT payload for API callers.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// Manager signs and verifies HMAC tokens with a single shared secret.
type Manager struct {
	secretKey []byte
	expiry    time.Duration
}

// NewManager creates a JWT manager.
func NewManager(secret string, expiry time.Duration) *Manager {
	return &Manager{
		secretKey: []byte(secret),
		expiry:    expiry,
	}
}

// GenerateToken issues a signed token for a user.
func (m *Manager) GenerateToken(userID, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			Issuer:    "policywatch-backend",
		},
		UserID: userID,
		Role:   role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken validates a token string and returns its claims.
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
