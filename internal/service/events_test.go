package service_test

import (
	"context"
	"testing"

	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/lifecycle"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.seed(t)
	otherManager := env.signUp(t, "manager2", "Manager")

	req := models.EventRequest{
		ApartmentID: f.apartment.ID,
		Description: "Broken boiler",
		EventDate:   "2030-06-14",
		StatusID:    lifecycle.EventNew,
	}

	created, err := env.svc.CreateEvent(ctx, f.manager, req)
	require.NoError(t, err)
	assert.Equal(t, f.manager.ID, created.ManagerID)
	assert.Equal(t, "New", created.Status)
	assert.Equal(t, 14, created.EventDate.Day())

	t.Run("OnlyManagedApartments", func(t *testing.T) {
		_, err := env.svc.CreateEvent(ctx, otherManager, req)
		v := requireFieldError(t, err, "apartment_id")
		assert.Equal(t, "validation_managed", v.Fields[0].Code)
	})

	t.Run("InvalidFields", func(t *testing.T) {
		bad := req
		bad.EventDate = "14/06/2030"
		bad.StatusID = lifecycle.MessageRead
		_, err := env.svc.CreateEvent(ctx, f.manager, bad)
		v := requireFieldError(t, err, "event_date")
		assert.True(t, v.Has("status_id"))
	})

	t.Run("OwnersReadOnly", func(t *testing.T) {
		list, err := env.svc.ListEvents(ctx, f.owner)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Test User", list[0].ManagerName)

		_, err = env.svc.GetEvent(ctx, f.owner, created.ID)
		assert.NoError(t, err)

		_, err = env.svc.CreateEvent(ctx, f.owner, req)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.ErrorIs(t, env.svc.DeleteEvent(ctx, f.owner, created.ID), apperrors.ErrForbidden)
	})

	t.Run("UpdateIsVersioned", func(t *testing.T) {
		edit := req
		edit.StatusID = lifecycle.EventSolved
		edit.RowVersion = created.RowVersion
		updated, err := env.svc.UpdateEvent(ctx, f.manager, created.ID, edit)
		require.NoError(t, err)
		assert.Equal(t, "Solved", updated.Status)
		assert.Equal(t, created.RowVersion+1, updated.RowVersion)

		// Statuses move freely between New, Pending and Solved.
		edit.StatusID = lifecycle.EventNew
		edit.RowVersion = updated.RowVersion
		reopened, err := env.svc.UpdateEvent(ctx, f.manager, created.ID, edit)
		require.NoError(t, err)
		assert.Equal(t, "New", reopened.Status)

		edit.RowVersion = created.RowVersion
		_, err = env.svc.UpdateEvent(ctx, f.manager, created.ID, edit)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, env.svc.DeleteEvent(ctx, f.manager, created.ID))
		_, err := env.svc.GetEvent(ctx, f.manager, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.ErrorIs(t, env.svc.DeleteEvent(ctx, f.manager, created.ID), apperrors.ErrNotFound)
	})
}

func TestListManagedApartments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := env.seed(t)
	otherManager := env.signUp(t, "manager2", "Manager")

	_, err := env.svc.CreateBuilding(ctx, otherManager, buildingRequest("B2", f.owner.ID, &otherManager.ID))
	require.NoError(t, err)
	_, err = env.svc.CreateApartment(ctx, otherManager, apartmentRequest("201", "B2", lifecycle.ApartmentRented), nil)
	require.NoError(t, err)

	list, err := env.svc.ListManagedApartments(ctx, f.manager)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.apartment.ID, list[0].ID)
	assert.Equal(t, "Available", list[0].Status)

	list, err = env.svc.ListManagedApartments(ctx, otherManager)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B2", list[0].BuildingCode)
	assert.Equal(t, "Rented", list[0].Status)

	_, err = env.svc.ListManagedApartments(ctx, f.owner)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = env.svc.ListManagedApartments(ctx, f.tenant)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
