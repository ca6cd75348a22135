package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

// The relation is a single document per patient, so "assign then unassign
// leaves both sides unlinked" holds structurally: deleting the row removes
// the link from both derived views at once. What is worth testing is the
// branching over the patient's current link.

func TestDecideAssignUnlinkedPatient(t *testing.T) {
	providerID := primitive.NewObjectID()

	alreadyLinked, err := decideAssign(nil, providerID)

	require.NoError(t, err)
	assert.False(t, alreadyLinked)
}

func TestDecideAssignSameProviderIsNoOp(t *testing.T) {
	providerID := primitive.NewObjectID()
	existing := &models.Assignment{
		PatientID:  primitive.NewObjectID(),
		ProviderID: providerID,
	}

	alreadyLinked, err := decideAssign(existing, providerID)

	require.NoError(t, err)
	assert.True(t, alreadyLinked)
}

func TestDecideAssignOtherProviderConflicts(t *testing.T) {
	existing := &models.Assignment{
		PatientID:  primitive.NewObjectID(),
		ProviderID: primitive.NewObjectID(),
	}

	alreadyLinked, err := decideAssign(existing, primitive.NewObjectID())

	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	assert.False(t, alreadyLinked)
}
