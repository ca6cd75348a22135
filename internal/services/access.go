package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

var (
	// ErrForbidden means the acting user may not see the requested patient's records.
	ErrForbidden = errors.New("not authorized for this patient")
	// ErrInvalidID means a supplied id was not a valid ObjectID.
	ErrInvalidID = errors.New("invalid id")
)

// AccessService answers "which patients can this user see" independently of
// HTTP plumbing. Patients see themselves, providers see their roster (derived
// from the assignments collection), admins see everyone.
type AccessService struct {
	DB *mongo.Database
}

func NewAccessService(db *mongo.Database) *AccessService {
	return &AccessService{DB: db}
}

// RosterIDs returns the ids of every patient assigned to the given provider.
func (s *AccessService) RosterIDs(ctx context.Context, providerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := s.DB.Collection("assignments").Find(ctx, bson.M{"providerId": providerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []models.Assignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.PatientID)
	}
	return ids, nil
}

// CanAccessPatient reports whether the actor may read or modify records
// belonging to the given patient.
func (s *AccessService) CanAccessPatient(ctx context.Context, actor *models.User, patientID primitive.ObjectID) (bool, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return true, nil
	case models.RolePatient:
		return actor.ID == patientID, nil
	case models.RoleProvider:
		count, err := s.DB.Collection("assignments").CountDocuments(ctx, bson.M{
			"providerId": actor.ID,
			"patientId":  patientID,
		})
		if err != nil {
			return false, err
		}
		return count > 0, nil
	}
	return false, nil
}

// ScopePatientFilter builds the patient-scoping part of a list query.
// requestedPatientID is the raw "patientId" query parameter and may be empty.
// Patients are always pinned to themselves; providers may only narrow to a
// roster member; admins may narrow to anyone.
func (s *AccessService) ScopePatientFilter(ctx context.Context, actor *models.User, requestedPatientID string) (bson.M, error) {
	switch actor.Role {
	case models.RolePatient:
		return bson.M{"patient": actor.ID}, nil

	case models.RoleProvider:
		if requestedPatientID != "" {
			patientID, err := primitive.ObjectIDFromHex(requestedPatientID)
			if err != nil {
				return nil, ErrInvalidID
			}
			ok, err := s.CanAccessPatient(ctx, actor, patientID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrForbidden
			}
			return bson.M{"patient": patientID}, nil
		}
		roster, err := s.RosterIDs(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return bson.M{"patient": bson.M{"$in": roster}}, nil

	case models.RoleAdmin:
		if requestedPatientID != "" {
			patientID, err := primitive.ObjectIDFromHex(requestedPatientID)
			if err != nil {
				return nil, ErrInvalidID
			}
			return bson.M{"patient": patientID}, nil
		}
		return bson.M{}, nil
	}

	return nil, ErrForbidden
}
