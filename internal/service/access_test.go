package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.SignUp(ctx, signUpRequest("alice", "Tenant"))
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Tenant", resp.Role)
	assert.Empty(t, resp.Token)

	stored, err := env.repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, testPassword, stored.PasswordHash)

	t.Run("DuplicateUsername", func(t *testing.T) {
		_, err := env.svc.SignUp(ctx, signUpRequest("alice", "Manager"))
		v := requireFieldError(t, err, "username")
		assert.Equal(t, "validation_unique", v.Fields[0].Code)
	})

	t.Run("InvalidFields", func(t *testing.T) {
		req := signUpRequest("bob", "Landlord")
		req.Password = "weak"
		req.ConfirmPassword = "different"
		req.PhoneNumber = "5145550100"
		_, err := env.svc.SignUp(ctx, req)
		v := requireFieldError(t, err, "password")
		for _, field := range []string{"confirm_password", "phone_number", "role"} {
			assert.True(t, v.Has(field), field)
		}

		missing, err := env.repo.GetUserByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestConcurrentSignUpSameUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.SignUp(ctx, signUpRequest("racer", "Tenant"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireFieldError(t, err, "username")
	}
	assert.Equal(t, 1, succeeded)

	users, err := env.repo.SearchUsers(ctx, "Tenant", repository.UserFilter{Column: "username", Term: "racer", Strict: true})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	manager := env.signUp(t, "manager", "Manager")

	t.Run("Success", func(t *testing.T) {
		resp, err := env.svc.Login(ctx, models.LoginRequest{Username: "manager", Password: testPassword})
		require.NoError(t, err)
		assert.Equal(t, manager.ID, resp.UserID)
		assert.Equal(t, 20*60, resp.ExpiresIn)

		actor, err := env.tokens.Resolve(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, manager, actor)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := env.svc.Login(ctx, models.LoginRequest{Username: "manager", Password: "Wrong#123"})
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		requireFieldError(t, err, "password")
	})

	t.Run("UnknownUsername", func(t *testing.T) {
		_, err := env.svc.Login(ctx, models.LoginRequest{Username: "nobody", Password: testPassword})
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		requireFieldError(t, err, "username")
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, err := env.svc.Login(ctx, models.LoginRequest{})
		assert.NotErrorIs(t, err, apperrors.ErrUnauthorized)
		v := requireFieldError(t, err, "username")
		assert.True(t, v.Has("password"))
	})
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.seed(t)
	env.signUp(t, "tenant2", "Tenant")

	profile, err := env.svc.Profile(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, "owner", profile.User.Username)
	require.NotNil(t, profile.Stats)
	assert.Equal(t, 2, profile.Stats.Tenants)
	assert.Equal(t, 1, profile.Stats.Managers)
	assert.Equal(t, 0, profile.Stats.OpenEvents)

	_, err = env.svc.CreateEvent(ctx, f.manager, models.EventRequest{
		ApartmentID: f.apartment.ID, Description: "Leak", EventDate: "2030-06-16", StatusID: lifecycle.EventNew,
	})
	require.NoError(t, err)
	profile, err = env.svc.Profile(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Stats.OpenEvents)

	profile, err = env.svc.Profile(ctx, f.tenant)
	require.NoError(t, err)
	assert.Nil(t, profile.Stats)

	removed := policy.Actor{ID: 9999, Username: "ghost", Role: policy.RoleTenant}
	_, err = env.svc.Profile(ctx, removed)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
