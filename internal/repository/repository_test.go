package repository_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/config"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/repository"
	"github.com/rongwang/property-rental-server/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *repository.SQLRepository {
	t.Helper()
	db, err := config.OpenDatabase(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, config.CreateTables(db))
	return repository.NewSQLRepository(db)
}

func createUser(t *testing.T, repo repository.Repository, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		FirstName:    "Test",
		LastName:     username,
		Email:        username + "@example.com",
		PhoneNumber:  "514-555-0100",
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

type fixture struct {
	owner, manager, tenant *models.User
	building               *models.Building
	apartment              *models.Apartment
}

func seedFixture(t *testing.T, repo repository.Repository) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		owner:   createUser(t, repo, "owner", "Owner"),
		manager: createUser(t, repo, "manager", "Manager"),
		tenant:  createUser(t, repo, "tenant", "Tenant"),
	}
	f.building = &models.Building{
		Code: "B1", OwnerID: f.owner.ID, ManagerID: &f.manager.ID, Name: "Tower",
		Address: "1 Main St", City: "Montreal", Province: "QC", ZipCode: "H2X 1Y4",
	}
	require.NoError(t, repo.CreateBuilding(ctx, f.building))

	f.apartment = &models.Apartment{
		Code: "101", BuildingCode: "B1", ApartmentTypeID: 1, Description: "Corner unit",
		Rent: 1250.5, StatusID: lifecycle.ApartmentAvailable,
	}
	require.NoError(t, repo.CreateApartment(ctx, f.apartment, nil))
	return f
}

func TestCreateTablesIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, config.CreateTables(repo.GetDB()))

	statuses, err := repo.ListStatuses(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, statuses, len(lifecycle.Catalogue))

	appointments, err := repo.ListStatuses(context.Background(), string(lifecycle.CategoryAppointments))
	require.NoError(t, err)
	require.Len(t, appointments, 3)
	assert.Equal(t, "Pending", appointments[0].Description)

	types, err := repo.ListApartmentTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, types, len(config.ApartmentTypes))
}

func TestUsers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	alice := createUser(t, repo, "alice", "Tenant")
	assert.Greater(t, alice.ID, int64(0))
	assert.False(t, alice.CreatedAt.IsZero())

	t.Run("GetByUsername", func(t *testing.T) {
		got, err := repo.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice.ID, got.ID)

		missing, err := repo.GetUserByUsername(ctx, "nobody")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		err := repo.CreateUser(ctx, &models.User{Username: "alice", Role: "Tenant"})
		v, ok := apperrors.AsValidation(err)
		require.True(t, ok)
		assert.True(t, v.Has("username"))

		n, err := repo.CountUsersByRole(ctx, "Tenant")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("GetUsersByIDs", func(t *testing.T) {
		bob := createUser(t, repo, "bob", "Manager")
		users, err := repo.GetUsersByIDs(ctx, []int64{alice.ID, bob.ID, 9999})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, "bob", users[bob.ID].Username)

		empty, err := repo.GetUsersByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("UpdateUser", func(t *testing.T) {
		alice.Email = "alice@new.example.com"
		require.NoError(t, repo.UpdateUser(ctx, alice))
		got, err := repo.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@new.example.com", got.Email)

		wrongRole := *alice
		wrongRole.Role = "Manager"
		assert.ErrorIs(t, repo.UpdateUser(ctx, &wrongRole), apperrors.ErrNotFound)

		taken := *alice
		taken.Username = "bob"
		_, ok := apperrors.AsValidation(repo.UpdateUser(ctx, &taken))
		assert.True(t, ok)
	})
}

func TestSearchUsers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	jane := createUser(t, repo, "jane", "Tenant")
	createUser(t, repo, "janet", "Tenant")
	createUser(t, repo, "janice", "Manager")

	tests := []struct {
		name   string
		filter repository.UserFilter
		want   int
	}{
		{"all tenants", repository.UserFilter{}, 2},
		{"substring", repository.UserFilter{Column: "username", Term: "JAN"}, 2},
		{"strict", repository.UserFilter{Column: "username", Term: "jane", Strict: true}, 1},
		{"strict case", repository.UserFilter{Column: "username", Term: "Jane", Strict: true}, 0},
		{"email", repository.UserFilter{Column: "email", Term: "janet@"}, 1},
		{"strict id", repository.UserFilter{Column: "user_id", Term: itoa(jane.ID), Strict: true}, 1},
		{"strict id not a number", repository.UserFilter{Column: "user_id", Term: "x", Strict: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.SearchUsers(ctx, "Tenant", tt.filter)
			require.NoError(t, err)
			assert.Len(t, users, tt.want)
		})
	}

	_, err := repo.SearchUsers(ctx, "Tenant", repository.UserFilter{Column: "password_hash", Term: "x"})
	assert.Error(t, err)
}

func TestBuildingVersioning(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	f := seedFixture(t, repo)

	loaded, err := repo.GetBuilding(ctx, "B1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(1), loaded.RowVersion)
	assert.Equal(t, f.manager.ID, *loaded.ManagerID)

	stale := *loaded
	loaded.Name = "Renamed"
	require.NoError(t, repo.UpdateBuilding(ctx, loaded))
	assert.Equal(t, int64(2), loaded.RowVersion)

	stale.Name = "Lost update"
	assert.ErrorIs(t, repo.UpdateBuilding(ctx, &stale), apperrors.ErrConflict)

	current, err := repo.GetBuilding(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", current.Name)

	missing := *loaded
	missing.Code = "NOPE"
	assert.ErrorIs(t, repo.UpdateBuilding(ctx, &missing), apperrors.ErrNotFound)

	_, ok := apperrors.AsValidation(repo.CreateBuilding(ctx, &models.Building{
		Code: "B1", OwnerID: f.owner.ID, Name: "Dup", Address: "a", City: "c", Province: "p", ZipCode: "H2X 1Y4",
	}))
	assert.True(t, ok)
}

func TestDeleteReferencedRowsIsInUse(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	f := seedFixture(t, repo)

	assert.ErrorIs(t, repo.DeleteBuilding(ctx, "B1"), apperrors.ErrInUse)
	assert.ErrorIs(t, repo.DeleteUser(ctx, f.owner.ID, "Owner"), apperrors.ErrInUse)

	require.NoError(t, repo.DeleteApartment(ctx, f.apartment.ID))
	require.NoError(t, repo.DeleteBuilding(ctx, "B1"))
	assert.ErrorIs(t, repo.DeleteBuilding(ctx, "B1"), apperrors.ErrNotFound)
}

func TestApartmentImage(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	f := seedFixture(t, repo)

	assert.False(t, f.apartment.HasImage)
	img, err := repo.GetApartmentImage(ctx, f.apartment.ID)
	require.NoError(t, err)
	assert.Nil(t, img)

	data := []byte{0x89, 'P', 'N', 'G', 1, 2, 3, 0, 255}
	withImage := &models.Apartment{
		Code: "102", BuildingCode: "B1", ApartmentTypeID: 2, Description: "With photo",
		Rent: 900, StatusID: lifecycle.ApartmentRented,
	}
	require.NoError(t, repo.CreateApartment(ctx, withImage, &upload.Image{Data: data, ContentType: "image/png"}))
	assert.True(t, withImage.HasImage)

	img, err = repo.GetApartmentImage(ctx, withImage.ID)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, data, img.Data)
	assert.Equal(t, "image/png", img.ContentType)

	// Editing without a new image keeps the stored one.
	withImage.Rent = 950
	require.NoError(t, repo.UpdateApartment(ctx, withImage, nil))
	img, err = repo.GetApartmentImage(ctx, withImage.ID)
	require.NoError(t, err)
	assert.Equal(t, data, img.Data)

	got, err := repo.GetApartment(ctx, withImage.ID)
	require.NoError(t, err)
	assert.True(t, got.HasImage)
	assert.Equal(t, 950.0, got.Rent)
	assert.Equal(t, int64(2), got.RowVersion)

	available, err := repo.ListApartments(ctx, lifecycle.ApartmentAvailable)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, f.apartment.ID, available[0].ID)

	managed, err := repo.ListApartmentsManagedBy(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Len(t, managed, 2)

	_, ok := apperrors.AsValidation(repo.CreateApartment(ctx, &models.Apartment{
		Code: "101", BuildingCode: "B1", ApartmentTypeID: 1, Description: "dup", Rent: 1, StatusID: 1,
	}, nil))
	assert.True(t, ok)
}

func TestAppointmentsArePartyScoped(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	f := seedFixture(t, repo)
	other := createUser(t, repo, "other", "Tenant")

	at := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)
	mine := &models.Appointment{
		TenantID: f.tenant.ID, ManagerID: &f.manager.ID, ApartmentID: f.apartment.ID,
		AppointmentDateTime: at, StatusID: lifecycle.AppointmentPending,
	}
	require.NoError(t, repo.CreateAppointment(ctx, mine))
	theirs := &models.Appointment{
		TenantID: other.ID, ApartmentID: f.apartment.ID,
		AppointmentDateTime: at.Add(time.Hour), StatusID: lifecycle.AppointmentPending,
	}
	require.NoError(t, repo.CreateAppointment(ctx, theirs))

	list, err := repo.ListAppointmentsForUser(ctx, f.tenant.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.True(t, at.Equal(list[0].AppointmentDateTime))

	list, err = repo.ListAppointmentsForUser(ctx, f.manager.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := repo.GetAppointment(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ManagerID)

	stale := *mine
	mine.StatusID = lifecycle.AppointmentConfirmed
	require.NoError(t, repo.UpdateAppointmentStatus(ctx, mine))
	stale.StatusID = lifecycle.AppointmentCanceled
	assert.ErrorIs(t, repo.UpdateAppointmentStatus(ctx, &stale), apperrors.ErrConflict)

	got, err = repo.GetAppointment(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.AppointmentConfirmed, got.StatusID)
}

func TestMessagesArePartyScoped(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	f := seedFixture(t, repo)
	other := createUser(t, repo, "other", "Tenant")

	msg := &models.Message{
		SenderUserID: f.tenant.ID, ReceiverUserID: f.manager.ID, Subject: "Hi", Body: "Leaky tap",
		MessageDateTime: time.Now().UTC(), StatusID: lifecycle.MessageUnread,
	}
	require.NoError(t, repo.CreateMessage(ctx, msg))

	for _, id := range []int64{f.tenant.ID, f.manager.ID} {
		list, err := repo.ListMessagesForUser(ctx, id)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
	list, err := repo.ListMessagesForUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	msg.StatusID = lifecycle.MessageRead
	require.NoError(t, repo.UpdateMessageStatus(ctx, msg))
	got, err := repo.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.MessageRead, got.StatusID)
	assert.Equal(t, int64(2), got.RowVersion)

	gone, err := repo.GetMessage(ctx, 12345)
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

func TestEvents(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	f := seedFixture(t, repo)

	event := &models.Event{
		ManagerID: f.manager.ID, ApartmentID: f.apartment.ID, Description: "Boiler",
		EventDate: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), StatusID: lifecycle.EventNew,
	}
	require.NoError(t, repo.CreateEvent(ctx, event))

	open, err := repo.CountEventsNotInStatus(ctx, lifecycle.EventSolved)
	require.NoError(t, err)
	assert.Equal(t, 1, open)

	event.StatusID = lifecycle.EventSolved
	require.NoError(t, repo.UpdateEvent(ctx, event))
	open, err = repo.CountEventsNotInStatus(ctx, lifecycle.EventSolved)
	require.NoError(t, err)
	assert.Equal(t, 0, open)

	require.NoError(t, repo.DeleteEvent(ctx, event.ID))
	assert.ErrorIs(t, repo.UpdateEvent(ctx, event), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteEvent(ctx, event.ID), apperrors.ErrNotFound)
}
