package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusTaken   = "taken"
	StatusMissed  = "missed"
	StatusSkipped = "skipped"
	StatusPending = "pending"
)

// AdherenceLog records one scheduled-dose occurrence for a medication.
type AdherenceLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID     primitive.ObjectID `bson:"patient" json:"patient"`
	MedicationID  primitive.ObjectID `bson:"medication" json:"medication"`
	ScheduledTime time.Time          `bson:"scheduledTime" json:"scheduledTime"`
	TakenAt       *time.Time         `bson:"takenAt,omitempty" json:"takenAt,omitempty"`
	Status        string             `bson:"status" json:"status"` // taken, missed, skipped, pending
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
