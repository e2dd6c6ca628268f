package service_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/auth"
	"github.com/rongwang/property-rental-server/internal/config"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/repository"
	"github.com/rongwang/property-rental-server/internal/service"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is the service clock in every test.
var fixedNow = time.Date(2030, 6, 15, 10, 0, 0, 0, time.UTC)

const testPassword = "Secret#123"

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

type testEnv struct {
	svc    service.Service
	repo   *repository.SQLRepository
	tokens *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	utils.SilenceLogger()

	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, config.CreateTables(db))

	tokens, err := auth.NewTokenService("test-secret-key", 20*time.Minute)
	require.NoError(t, err)

	repo := repository.NewSQLRepository(db)
	svc := service.NewDefaultService(repo, tokens,
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithMaxUploadBytes(1<<20),
	)
	return &testEnv{svc: svc, repo: repo, tokens: tokens}
}

func signUpRequest(username, role string) models.SignUpRequest {
	return models.SignUpRequest{
		Username:        username,
		FirstName:       "Test",
		LastName:        "User",
		Email:           username + "@example.com",
		PhoneNumber:     "514-555-0100",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		Role:            role,
	}
}

// signUp registers a user through the service and returns it as an actor.
func (e *testEnv) signUp(t *testing.T, username, role string) policy.Actor {
	t.Helper()
	resp, err := e.svc.SignUp(context.Background(), signUpRequest(username, role))
	require.NoError(t, err)
	r, err := policy.ParseRole(role)
	require.NoError(t, err)
	return policy.Actor{ID: resp.UserID, Username: username, Role: r}
}

type fixture struct {
	owner, manager, tenant policy.Actor
	building               *models.Building
	apartment              *models.ApartmentView
}

func buildingRequest(code string, ownerID int64, managerID *int64) models.BuildingRequest {
	return models.BuildingRequest{
		Code:      code,
		OwnerID:   ownerID,
		ManagerID: managerID,
		Name:      "Tower " + code,
		Address:   "1 Main St",
		City:      "Montreal",
		Province:  "QC",
		ZipCode:   "H2X 1Y4",
	}
}

func apartmentRequest(code, buildingCode string, statusID int64) models.ApartmentRequest {
	return models.ApartmentRequest{
		Code:            code,
		BuildingCode:    buildingCode,
		ApartmentTypeID: 1,
		Description:     "Corner unit",
		Rent:            1250,
		StatusID:        statusID,
	}
}

// seed creates one user per role, a building managed by the manager and an
// available apartment in it.
func (e *testEnv) seed(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		owner:   e.signUp(t, "owner", "Owner"),
		manager: e.signUp(t, "manager", "Manager"),
		tenant:  e.signUp(t, "tenant", "Tenant"),
	}

	var err error
	f.building, err = e.svc.CreateBuilding(ctx, f.manager, buildingRequest("B1", f.owner.ID, &f.manager.ID))
	require.NoError(t, err)
	f.apartment, err = e.svc.CreateApartment(ctx, f.manager, apartmentRequest("101", "B1", lifecycle.ApartmentAvailable), nil)
	require.NoError(t, err)
	return f
}

// fileHeader builds the multipart header a handler would pass for an
// uploaded "image" part.
func fileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}

func requireFieldError(t *testing.T, err error, field string) *apperrors.ValidationError {
	t.Helper()
	v, ok := apperrors.AsValidation(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	require.True(t, v.Has(field), "expected a failure on %s, got %v", field, v)
	return v
}

func TestAnonymousActorIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Profile(ctx, policy.Anonymous)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = env.svc.ListBuildings(ctx, policy.Anonymous)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = env.svc.ListMessages(ctx, policy.Actor{ID: 1})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRoleGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.seed(t)

	_, err := env.svc.ListBuildings(ctx, f.tenant)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.svc.ListApartments(ctx, f.owner)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.svc.ListAvailableApartments(ctx, f.manager)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.svc.ListTenants(ctx, f.manager, models.TenantSearch{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.svc.ListMessages(ctx, f.owner)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.svc.ListEvents(ctx, f.tenant)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	for _, actor := range []policy.Actor{f.owner, f.manager, f.tenant} {
		_, err = env.svc.ListStatuses(ctx, actor, "")
		assert.NoError(t, err, actor.Role.String())
	}
}

func TestLookups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant := env.signUp(t, "tenant", "Tenant")

	statuses, err := env.svc.ListStatuses(ctx, tenant, "Messages")
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	_, err = env.svc.ListStatuses(ctx, tenant, "Invoices")
	requireFieldError(t, err, "category")

	types, err := env.svc.ListApartmentTypes(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, types, len(config.ApartmentTypes))
}
