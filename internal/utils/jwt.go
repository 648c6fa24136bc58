package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/confera/auth-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Token verification errors. Expiry is distinguished from every other
// failure so callers can surface "link expired" separately.
var (
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// JWTManager mints and verifies the three token kinds. All kinds share
// one signing key; the "type" claim is what keeps them apart, so it is
// checked on every verification path.
type JWTManager struct {
	secret            []byte
	accessTokenExpiry time.Duration
	verifyTokenExpiry time.Duration
	resetTokenExpiry  time.Duration
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secret string, accessExpiry, verifyExpiry, resetExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:            []byte(secret),
		accessTokenExpiry: accessExpiry,
		verifyTokenExpiry: verifyExpiry,
		resetTokenExpiry:  resetExpiry,
	}
}

// Issue mints a token of the given kind for the user. Access tokens
// embed email and role at issuance time; the short-lived kinds carry
// only the subject.
func (j *JWTManager) Issue(kind domain.TokenKind, user *domain.User) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"type":    string(kind),
		"iat":     now.Unix(),
	}

	switch kind {
	case domain.TokenAccess:
		claims["email"] = user.Email
		claims["role"] = string(user.Role)
		claims["exp"] = now.Add(j.accessTokenExpiry).Unix()
	case domain.TokenEmailVerification:
		claims["exp"] = now.Add(j.verifyTokenExpiry).Unix()
	case domain.TokenPasswordReset:
		claims["exp"] = now.Add(j.resetTokenExpiry).Unix()
	default:
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify validates signature and expiry, then checks the "type" claim
// against the expected kind. A missing or mismatching type claim is
// ErrTokenInvalid even when the signature checks out.
func (j *JWTManager) Verify(tokenString string, expected domain.TokenKind) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	kind, ok := claims["type"].(string)
	if !ok || domain.TokenKind(kind) != expected {
		return nil, ErrTokenInvalid
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrTokenInvalid
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	iat, _ := claims["iat"].(float64)

	tokenClaims := &domain.TokenClaims{
		UserID: userID,
		Kind:   domain.TokenKind(kind),
		Exp:    int64(exp),
		Iat:    int64(iat),
	}

	if email, ok := claims["email"].(string); ok {
		tokenClaims.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		tokenClaims.Role = domain.Role(role)
	}

	if tokenClaims.IsExpired() {
		return nil, ErrTokenExpired
	}

	return tokenClaims, nil
}

// AccessTokenExpiry returns the access token lifetime in seconds.
func (j *JWTManager) AccessTokenExpiry() int {
	return int(j.accessTokenExpiry.Seconds())
}
