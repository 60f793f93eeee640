package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/qubras-auth/internal/model"
)

// Claims represents the access token claims issued by the identity backend.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// JWT implements TokenParser. With a secret configured it verifies HS256
// signatures; without one it only decodes claims, leaving verification to
// the backend that issued them.
type JWT struct {
	secretKey string
	now       func() time.Time
}

// NewJWT creates a new access token parser.
func NewJWT(secretKey string) *JWT {
	return &JWT{secretKey: secretKey, now: time.Now}
}

var _ model.TokenParser = (*JWT)(nil)

// ParseAccessToken extracts the subject, email and expiry of an access token.
func (j *JWT) ParseAccessToken(tokenString string) (model.AccessClaims, error) {
	claims := &Claims{}

	if j.secretKey == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return model.AccessClaims{}, fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
		}
		if claims.ExpiresAt != nil && j.now().After(claims.ExpiresAt.Time) {
			return model.AccessClaims{}, model.ErrTokenExpired
		}
	} else {
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
			}
			return []byte(j.secretKey), nil
		}, jwt.WithTimeFunc(j.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return model.AccessClaims{}, model.ErrTokenExpired
			}
			return model.AccessClaims{}, fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
		}
		if !token.Valid {
			return model.AccessClaims{}, fmt.Errorf("%w: token is invalid", model.ErrTokenMalformed)
		}
	}

	if claims.Subject == "" {
		return model.AccessClaims{}, model.ErrTokenSubjectMissing
	}
	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.AccessClaims{}, fmt.Errorf("%w: subject is not a uuid", model.ErrTokenMalformed)
	}

	out := model.AccessClaims{
		Subject: subject,
		Email:   claims.Email,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// GenerateAccessToken signs an HS256 access token in the backend's format.
// The agent only uses it against local identity stubs.
func (j *JWT) GenerateAccessToken(subject uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  "authenticated",
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}
