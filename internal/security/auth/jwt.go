package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is how long an issued session token stays valid
const SessionTTL = 30 * 24 * time.Hour

// ErrInvalidToken is the only error Verify returns. Malformed, tampered and
// expired tokens are distinguished in logs only.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated subject carried by a session token
type Identity struct {
	UserID  int64
	Email   string
	IsAdmin bool
}

type Claims struct {
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewTokenManager creates a manager signing with secret. The secret is read
// once here and never changes for the life of the manager.
func NewTokenManager(secret, issuer string, logger *slog.Logger) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret required")
	}
	if issuer == "" {
		issuer = "connectcoach"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    SessionTTL,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Issue signs a token for id that expires SessionTTL from now
func (tm *TokenManager) Issue(id Identity) (string, error) {
	if id.UserID <= 0 {
		return "", fmt.Errorf("user id required")
	}
	now := tm.now()
	claims := Claims{
		UserID:  id.UserID,
		Email:   id.Email,
		IsAdmin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token failed: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity
func (tm *TokenManager) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		reason := "malformed"
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			reason = "expired"
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			reason = "bad_signature"
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			reason = "wrong_issuer"
		}
		tm.logger.Debug("session token rejected",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		tm.logger.Debug("session token rejected", slog.String("reason", "bad_claims"))
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
	}, nil
}
