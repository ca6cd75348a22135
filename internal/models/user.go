package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin    = "admin"
	RolePatient  = "patient"
	RoleProvider = "provider"
)

type Address struct {
	StreetAddress string `bson:"streetAddress" json:"streetAddress"`
	City          string `bson:"city" json:"city"`
	State         string `bson:"state" json:"state"`
	Zipcode       string `bson:"zipcode" json:"zipcode"`
}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName   string             `bson:"firstName" json:"firstName"`
	LastName    string             `bson:"lastName" json:"lastName"`
	Email       string             `bson:"email" json:"email"` // stored lowercase, unique index
	Password    string             `bson:"password" json:"-"`  // bcrypt hash, never serialized
	Role        string             `bson:"role" json:"role"`   // "admin", "patient", "provider"
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	DateOfBirth string             `bson:"dateOfBirth" json:"dateOfBirth"`
	Gender      string             `bson:"gender" json:"gender"`
	Address     Address            `bson:"address" json:"address"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
