package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
)

// Authenticator validates HS256 tokens whose subject is the user id.
type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
}

func NewAuthenticator(secret, issuer, audience string) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// GenerateToken issues a token for userID valid for ttl.
func (that *Authenticator) GenerateToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    that.issuer,
		Audience:  jwt.ClaimStrings{that.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(that.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

// UserID validates token and returns its subject.
func (that *Authenticator) UserID(token string) (string, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return that.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(that.issuer),
		jwt.WithAudience(that.audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrUnauthorized, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", apperror.ErrUnauthorized)
	}

	return claims.Subject, nil
}

// TokenFromRequest reads a bearer token from the Authorization header,
// falling back to the token query parameter used by browser websocket clients.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	return r.URL.Query().Get("token")
}
