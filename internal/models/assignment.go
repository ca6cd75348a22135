package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment is the single source of truth for the patient-provider relation.
// A unique index on patientId guarantees at most one provider per patient;
// each side's view is derived by query instead of denormalized arrays.
type Assignment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID  primitive.ObjectID `bson:"patientId" json:"patientId"`
	ProviderID primitive.ObjectID `bson:"providerId" json:"providerId"`
	AssignedBy primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
