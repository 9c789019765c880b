package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/anorak42/tiktok-tracker/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

func TestAuthHandler_Signup(t *testing.T) {
	users := &fakeUserRepo{}
	h := NewAuthHandler(users, testJWTSecret, zap.NewNop())

	body := `{"name":"Test User","email":"test@example.com","password":"password123"}`
	c, rec := newTestContext(t, http.MethodPost, "/auth/signup", body, 0)
	require.NoError(t, h.Signup(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])

	// the token carries the new user's identity
	claims := &models.JwtCustomClaims{}
	_, err := jwt.ParseWithClaims(resp["token"], claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.NotZero(t, claims.UserID)

	// the password is stored hashed
	user, err := users.GetUserByEmail("test@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
}

func TestAuthHandler_Signup_DuplicateEmail(t *testing.T) {
	users := &fakeUserRepo{users: []models.User{{ID: 1, Email: "test@example.com"}}}
	h := NewAuthHandler(users, testJWTSecret, zap.NewNop())

	body := `{"name":"Test User","email":"test@example.com","password":"password123"}`
	c, rec := newTestContext(t, http.MethodPost, "/auth/signup", body, 0)
	err := h.Signup(c)
	assert.Equal(t, http.StatusConflict, httpStatus(err, rec))
}

func TestAuthHandler_Signup_Validation(t *testing.T) {
	h := NewAuthHandler(&fakeUserRepo{}, testJWTSecret, zap.NewNop())

	tests := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"name":"Test User","password":"password123"}`},
		{name: "malformed email", body: `{"name":"Test User","email":"nope","password":"password123"}`},
		{name: "short password", body: `{"name":"Test User","email":"test@example.com","password":"short"}`},
		{name: "short name", body: `{"name":"T","email":"test@example.com","password":"password123"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t, http.MethodPost, "/auth/signup", tt.body, 0)
			err := h.Signup(c)
			assert.Equal(t, http.StatusBadRequest, httpStatus(err, rec))
		})
	}
}

func TestAuthHandler_SignIn(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	users := &fakeUserRepo{users: []models.User{{ID: 1, Email: "test@example.com", Password: string(hashed)}}}
	h := NewAuthHandler(users, testJWTSecret, zap.NewNop())

	c, rec := newTestContext(t, http.MethodPost, "/auth/signin", `{"email":"test@example.com","password":"password123"}`, 0)
	require.NoError(t, h.SignIn(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
}

func TestAuthHandler_SignIn_WrongPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	users := &fakeUserRepo{users: []models.User{{ID: 1, Email: "test@example.com", Password: string(hashed)}}}
	h := NewAuthHandler(users, testJWTSecret, zap.NewNop())

	c, rec := newTestContext(t, http.MethodPost, "/auth/signin", `{"email":"test@example.com","password":"wrong-password"}`, 0)
	signInErr := h.SignIn(c)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(signInErr, rec))
}

func TestAuthHandler_SignIn_UnknownEmail(t *testing.T) {
	h := NewAuthHandler(&fakeUserRepo{}, testJWTSecret, zap.NewNop())

	c, rec := newTestContext(t, http.MethodPost, "/auth/signin", `{"email":"ghost@example.com","password":"password123"}`, 0)
	err := h.SignIn(c)
	assert.Equal(t, http.StatusUnauthorized, httpStatus(err, rec))
}
