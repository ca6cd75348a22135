package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

// The patient and admin policy paths never touch the database, so they are
// exercised here directly; the provider roster path needs a live store and is
// covered by the query it builds.

func TestScopePatientFilterPatientPinnedToSelf(t *testing.T) {
	svc := &AccessService{}
	patient := &models.User{ID: primitive.NewObjectID(), Role: models.RolePatient}
	other := primitive.NewObjectID()

	// A patient asking for someone else's records still only sees their own.
	filter, err := svc.ScopePatientFilter(context.Background(), patient, other.Hex())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"patient": patient.ID}, filter)

	filter, err = svc.ScopePatientFilter(context.Background(), patient, "")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"patient": patient.ID}, filter)
}

func TestScopePatientFilterAdmin(t *testing.T) {
	svc := &AccessService{}
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	target := primitive.NewObjectID()

	filter, err := svc.ScopePatientFilter(context.Background(), admin, "")
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, filter)

	filter, err = svc.ScopePatientFilter(context.Background(), admin, target.Hex())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"patient": target}, filter)
}

func TestScopePatientFilterMalformedID(t *testing.T) {
	svc := &AccessService{}
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	provider := &models.User{ID: primitive.NewObjectID(), Role: models.RoleProvider}

	_, err := svc.ScopePatientFilter(context.Background(), admin, "not-an-object-id")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.ScopePatientFilter(context.Background(), provider, "not-an-object-id")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestScopePatientFilterUnknownRole(t *testing.T) {
	svc := &AccessService{}
	actor := &models.User{ID: primitive.NewObjectID(), Role: "auditor"}

	_, err := svc.ScopePatientFilter(context.Background(), actor, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCanAccessPatientWithoutStore(t *testing.T) {
	svc := &AccessService{}
	self := primitive.NewObjectID()
	other := primitive.NewObjectID()

	ok, err := svc.CanAccessPatient(context.Background(), &models.User{ID: self, Role: models.RolePatient}, self)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAccessPatient(context.Background(), &models.User{ID: self, Role: models.RolePatient}, other)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanAccessPatient(context.Background(), &models.User{ID: self, Role: models.RoleAdmin}, other)
	require.NoError(t, err)
	assert.True(t, ok)
}
