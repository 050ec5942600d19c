// Package auth resolves the owner of a request from its bearer token.
//
// Tokens are JWTs signed with HS256 and a secret shared with whoever issues them. The subject
// claim identifies the owner of the contacts that the request may see.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ownerKey is the gin context key under which the resolved owner is stored.
const ownerKey = "contacts.owner"

var (
	// ErrMissingToken is returned when a request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when a token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier checks bearer tokens and extracts the owner identifier.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for tokens signed with the given secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify validates the token signature and expiry and returns the subject claim.
func (v *Verifier) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}
	return subject, nil
}

// IssueToken signs a token for the given subject that is valid for ttl. The service itself never
// issues tokens; this is used by the command line client and in tests.
func IssueToken(secret string, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Middleware rejects requests without a valid bearer token with status 401. For all other
// requests, it makes the owner available through Owner.
func Middleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var owner string
			owner, err = verifier.Verify(token)
			if err == nil {
				c.Set(ownerKey, owner)
				c.Next()
				return
			}
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not authorized"})
	}
}

// Anonymous lets every request through as the empty owner. It is used when authentication is
// turned off, in which case all contacts are shared.
func Anonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ownerKey, "")
		c.Next()
	}
}

// Owner returns the owner that one of the middlewares resolved for the request.
func Owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}
