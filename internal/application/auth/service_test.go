package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

// Validation runs before any collaborator is touched, so these paths are
// safe to exercise with a zero service.
func TestRegister_RejectsInvalidInput(t *testing.T) {
	svc := &service{}
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.CreateUserRequest
	}{
		{"short username", domain.CreateUserRequest{Username: "ab", Email: "a@b.com", Password: "Sup3rSecret"}},
		{"username with spaces", domain.CreateUserRequest{Username: "not ok", Email: "a@b.com", Password: "Sup3rSecret"}},
		{"bad email", domain.CreateUserRequest{Username: "listener", Email: "not-an-email", Password: "Sup3rSecret"}},
		{"password without digit", domain.CreateUserRequest{Username: "listener", Email: "a@b.com", Password: "NoDigits"}},
		{"password without uppercase", domain.CreateUserRequest{Username: "listener", Email: "a@b.com", Password: "alllower1"}},
		{"password too short", domain.CreateUserRequest{Username: "listener", Email: "a@b.com", Password: "Ab1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrBadRequest)
		})
	}
}

func TestLogin_RejectsInvalidInput(t *testing.T) {
	svc := &service{}
	ctx := context.Background()

	err := svc.Login(ctx, LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = svc.Login(ctx, LoginRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestVerifyLogin_RejectsMalformedCode(t *testing.T) {
	svc := &service{}
	ctx := context.Background()

	_, _, _, err := svc.VerifyLogin(ctx, VerifyLoginRequest{Email: "a@b.com", Code: "12345"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, _, _, err = svc.VerifyLogin(ctx, VerifyLoginRequest{Email: "a@b.com", Code: "1234567"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRequestPasswordChange_RejectsWeakPassword(t *testing.T) {
	svc := &service{}
	ctx := context.Background()

	err := svc.RequestPasswordChange(ctx, "u1", PasswordChangeRequest{NewPassword: "weak"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
