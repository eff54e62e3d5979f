package auth

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// JWTServiceImpl implements domain.TokenService
type JWTServiceImpl struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTService creates an HS256 token service. Every role shares the same TTL.
func NewJWTService(secretKey, issuer string, ttl time.Duration) domain.TokenService {
	return NewJWTServiceWithClock(secretKey, issuer, ttl, time.Now)
}

// NewJWTServiceWithClock is NewJWTService with an injectable clock.
func NewJWTServiceWithClock(secretKey, issuer string, ttl time.Duration, now func() time.Time) domain.TokenService {
	return &JWTServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
		now:       now,
	}
}

// Issue implements domain.TokenService.
// iat carries millisecond precision so tokens issued just before a password change are detected as stale.
func (j *JWTServiceImpl) Issue(principal *domain.Principal) (*domain.IssuedToken, error) {
	now := j.now()
	expiresAt := now.Add(j.ttl)
	claims := jwt.MapClaims{
		"id":   principal.ID,
		"role": string(principal.Role),
		"iss":  j.issuer,
		"iat":  float64(now.UnixMilli()) / 1000,
		"exp":  expiresAt.Unix(),
		"jti":  uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &domain.IssuedToken{Token: signed, ExpiresAt: time.Unix(expiresAt.Unix(), 0)}, nil
}

// Validate implements domain.TokenService. It checks signature, expiry and claim shape;
// resolving the principal is left to the caller.
func (j *JWTServiceImpl) Validate(tokenString string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenMalformed
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenMalformed
	}
	if !token.Valid {
		return nil, domain.ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return nil, domain.ErrTokenMalformed
	}

	roleClaim, ok := claims["role"].(string)
	if !ok || roleClaim == "" {
		return nil, domain.ErrTokenMalformed
	}
	role := domain.Role(roleClaim)
	if !role.Valid() {
		return nil, domain.ErrUnknownRole
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	tokenClaims := &domain.TokenClaims{
		PrincipalID: id,
		Role:        role,
		IssuedAt:    time.UnixMilli(int64(math.Round(iat * 1000))),
		ExpiresAt:   time.Unix(int64(exp), 0),
	}
	if jti, ok := claims["jti"].(string); ok {
		tokenClaims.TokenID = jti
	}

	return tokenClaims, nil
}
