package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "unit-test-secret"

// runTest sends a request with the given Authorization header through the middleware and
// returns the response together with the owner the handler saw.
func runTest(handler gin.HandlerFunc, header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	var owner string
	router.GET("/", handler, func(c *gin.Context) {
		owner = Owner(c)
		c.Status(http.StatusOK)
	})
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("GET", "/", nil)
	if header != "" {
		request.Header.Set("Authorization", header)
	}
	router.ServeHTTP(recorder, request)
	return recorder, owner
}

// TestVerify verifies that an issued token yields its subject.
func TestVerify(t *testing.T) {
	token, err := IssueToken(secret, "alice", time.Hour)
	require.NoError(t, err)

	owner, err := NewVerifier(secret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
}

// TestVerifyRejects verifies that tokens with a wrong secret, a wrong algorithm, no subject or
// an expiry in the past are refused.
func TestVerifyRejects(t *testing.T) {
	wrongSecret, _ := IssueToken("another-secret", "alice", time.Hour)
	expired, _ := IssueToken(secret, "alice", -time.Minute)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString([]byte(secret))
	wrongAlgorithm, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))

	tokens := map[string]string{
		"wrong secret":    wrongSecret,
		"expired":         expired,
		"no subject":      noSubject,
		"no expiry":       noExpiry,
		"wrong algorithm": wrongAlgorithm,
		"garbage":         "not.a.token",
	}
	verifier := NewVerifier(secret)
	for name, token := range tokens {
		_, err := verifier.Verify(token)
		assert.True(t, errors.Is(err, ErrInvalidToken), name)
	}
}

// TestMiddleware verifies that a valid bearer token passes and exposes the owner.
func TestMiddleware(t *testing.T) {
	token, _ := IssueToken(secret, "bob", time.Hour)
	recorder, owner := runTest(Middleware(NewVerifier(secret)), "Bearer "+token)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "bob", owner)
}

// TestMiddlewareUnauthorized verifies that requests without a usable token are answered with
// the UNAUTHORIZED status code.
func TestMiddlewareUnauthorized(t *testing.T) {
	token, _ := IssueToken("another-secret", "bob", time.Hour)
	headers := []string{
		"",
		"Bearer",
		"Bearer ",
		"Basic dXNlcjpwYXNz",
		"Bearer " + token,
	}
	for _, header := range headers {
		recorder, _ := runTest(Middleware(NewVerifier(secret)), header)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "header: "+header)
		assert.JSONEq(t, `{"message": "not authorized"}`, recorder.Body.String())
	}
}

// TestAnonymous verifies that all requests resolve to the empty owner when authentication is
// turned off.
func TestAnonymous(t *testing.T) {
	recorder, owner := runTest(Anonymous(), "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "", owner)
}
