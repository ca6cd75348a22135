package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleEntry is one dose slot: a clock time plus the weekdays it applies to.
type ScheduleEntry struct {
	Time string   `bson:"time" json:"time"` // "HH:MM", 24-hour
	Days []string `bson:"days" json:"days"` // "Monday" ... "Sunday"
}

type Medication struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID       primitive.ObjectID `bson:"patient" json:"patient"`
	Name            string             `bson:"name" json:"name"`
	Dosage          string             `bson:"dosage" json:"dosage"`
	Frequency       string             `bson:"frequency" json:"frequency"`
	Schedule        []ScheduleEntry    `bson:"schedule" json:"schedule"`
	StartDate       time.Time          `bson:"startDate" json:"startDate"`
	EndDate         *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Instructions    string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	PrescribedBy    primitive.ObjectID `bson:"prescribedBy" json:"prescribedBy"` // must reference a provider
	IsActive        bool               `bson:"isActive" json:"isActive"`
	ReminderEnabled bool               `bson:"reminderEnabled" json:"reminderEnabled"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
