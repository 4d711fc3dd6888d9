package service

import (
	"context"
	"testing"

	"posengine/internal/apierror"
	"posengine/internal/config"
	"posengine/internal/dto"
	"posengine/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 8, JWTRefreshHours: 24}
}

func TestAuthService_LoginAndRefresh(t *testing.T) {
	store := newTestStore(t)
	cfg := testAuthConfig()
	svc := NewAuthService(store.Users, cfg)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, dto.CreateUserRequest{Username: "ana", Name: "Ana", Password: "s3cret-pass", Role: model.RoleManager})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, dto.LoginRequest{Username: "ana", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, 8*3600, resp.ExpiresIn)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) { return []byte(cfg.JWTSecret), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, model.RoleManager, claims["role"])
	assert.Equal(t, user.ID, claims["user_id"])

	refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RejectsBadCredentials(t *testing.T) {
	store := newTestStore(t)
	svc := NewAuthService(store.Users, testAuthConfig())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, dto.CreateUserRequest{Username: "ana", Name: "Ana", Password: "s3cret-pass", Role: model.RoleCashier})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "ana", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{Username: "ana", Name: "Other", Password: "s3cret-pass", Role: model.RoleCashier})
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{Username: "bob", Name: "Bob", Password: "s3cret-pass", Role: "owner"})
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}
