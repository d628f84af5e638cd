package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/pulse-stream/pulse-api/internal/application/auth"
	"github.com/pulse-stream/pulse-api/internal/domain"
	jwtinfra "github.com/pulse-stream/pulse-api/internal/infrastructure/jwt"
	"github.com/pulse-stream/pulse-api/internal/transport/http/middleware"
)

// --- mock ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) Login(ctx context.Context, req auth.LoginRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) VerifyLogin(ctx context.Context, req auth.VerifyLoginRequest) (string, string, *domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(2).(*domain.User); u != nil {
		return args.String(0), args.String(1), u, args.Error(3)
	}
	return "", "", nil, args.Error(3)
}

func (m *mockAuthSvc) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockAuthSvc) Logout(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockAuthSvc) RequestPasswordChange(ctx context.Context, userID string, req auth.PasswordChangeRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *mockAuthSvc) ConfirmPasswordChange(ctx context.Context, userID, code string) error {
	return m.Called(ctx, userID, code).Error(0)
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authedRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	req := jsonRequest(t, method, target, body)
	claims := &jwtinfra.Claims{UserID: "u1", SessionID: "sess1"}
	return req.WithContext(context.WithValue(req.Context(), middleware.ClaimsKey, claims))
}

func TestRegister_Created(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(&domain.User{
		UserID:   "u1",
		Username: "listener",
		Email:    "l@example.com",
	}, nil)

	req := jsonRequest(t, http.MethodPost, "/v1/auth/register", domain.CreateUserRequest{
		Username: "listener",
		Email:    "l@example.com",
		Password: "Sup3rSecret",
	})
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Register(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var env AuthEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NotNil(t, env.User)
	assert.Equal(t, "listener", env.User.Username)
}

func TestRegister_Conflict(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrConflict)

	req := jsonRequest(t, http.MethodPost, "/v1/auth/register", domain.CreateUserRequest{})
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Register(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLogin_Accepted(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil)

	req := jsonRequest(t, http.MethodPost, "/v1/auth/login", auth.LoginRequest{
		Email:    "l@example.com",
		Password: "Sup3rSecret",
	})
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Login(rr, req)

	// Credentials alone never yield a session; a code was emailed.
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Bearer")
}

func TestVerify_InvalidCode(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyLogin", mock.Anything, mock.Anything).Return("", "", nil, domain.ErrUnauthorized)

	req := jsonRequest(t, http.MethodPost, "/v1/auth/verify", auth.VerifyLoginRequest{
		Email: "l@example.com",
		Code:  "000000",
	})
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Verify(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVerify_ReturnsBearerAndUser(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyLogin", mock.Anything, mock.Anything).Return("bearer-token", "refresh-token", &domain.User{
		UserID:   "u1",
		Username: "listener",
	}, nil)

	req := jsonRequest(t, http.MethodPost, "/v1/auth/verify", auth.VerifyLoginRequest{
		Email: "l@example.com",
		Code:  "654321",
	})
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).Verify(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var env AuthEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "bearer-token", env.Bearer)
	assert.Equal(t, "refresh-token", env.RefreshToken)
}

func TestConfirmPasswordChange_StaleReturnsGone(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("ConfirmPasswordChange", mock.Anything, "u1", "654321").Return(auth.ErrStalePasswordChange)

	req := authedRequest(t, http.MethodPost, "/v1/auth/password-change/confirm", auth.ConfirmPasswordChangeRequest{
		Code: "654321",
	})
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).ConfirmPasswordChange(rr, req)

	assert.Equal(t, http.StatusGone, rr.Code)
}

func TestConfirmPasswordChange_RequiresAuth(t *testing.T) {
	svc := &mockAuthSvc{}

	req := jsonRequest(t, http.MethodPost, "/v1/auth/password-change/confirm", auth.ConfirmPasswordChangeRequest{
		Code: "654321",
	})
	rr := httptest.NewRecorder()
	NewAuthHandler(svc).ConfirmPasswordChange(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "ConfirmPasswordChange", mock.Anything, mock.Anything, mock.Anything)
}
