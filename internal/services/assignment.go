package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

var (
	// ErrAlreadyAssigned means the patient is linked to a different provider.
	ErrAlreadyAssigned = errors.New("patient already assigned to another provider")
	// ErrNotAssigned means no link exists between the patient and the provider.
	ErrNotAssigned = errors.New("patient is not assigned to this provider")
)

// AssignmentService manages the patient-provider relation. The relation lives
// in a single assignments document per patient (unique index on patientId), so
// assign, reassign and unassign are each one write with no partial state.
type AssignmentService struct {
	DB *mongo.Database
}

func NewAssignmentService(db *mongo.Database) *AssignmentService {
	return &AssignmentService{DB: db}
}

func (s *AssignmentService) collection() *mongo.Collection {
	return s.DB.Collection("assignments")
}

// ProviderOf returns the patient's current assignment, or nil when unassigned.
func (s *AssignmentService) ProviderOf(ctx context.Context, patientID primitive.ObjectID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := s.collection().FindOne(ctx, bson.M{"patientId": patientID}).Decode(&assignment)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// decideAssign resolves what a provider's assignment request means given the
// patient's current link: no link means go ahead and create one, a link to
// this provider is a no-op success, a link to anyone else is a conflict.
func decideAssign(existing *models.Assignment, providerID primitive.ObjectID) (alreadyLinked bool, err error) {
	if existing == nil {
		return false, nil
	}
	if existing.ProviderID == providerID {
		return true, nil
	}
	return false, ErrAlreadyAssigned
}

// Assign links a patient to the acting provider. Returns alreadyLinked=true
// as a no-op success when the link already exists; fails with
// ErrAlreadyAssigned when the patient belongs to another provider.
func (s *AssignmentService) Assign(ctx context.Context, provider *models.User, patientID primitive.ObjectID) (alreadyLinked bool, err error) {
	existing, err := s.ProviderOf(ctx, patientID)
	if err != nil {
		return false, err
	}
	alreadyLinked, err = decideAssign(existing, provider.ID)
	if alreadyLinked || err != nil {
		return alreadyLinked, err
	}

	_, err = s.collection().InsertOne(ctx, models.Assignment{
		PatientID:  patientID,
		ProviderID: provider.ID,
		AssignedBy: provider.ID,
		CreatedAt:  time.Now(),
	})
	if mongo.IsDuplicateKeyError(err) {
		// Lost a race against a concurrent assign; the unique index on
		// patientId keeps the relation single-sided either way.
		return false, ErrAlreadyAssigned
	}
	return false, err
}

// Unassign removes the link between the provider and the patient.
func (s *AssignmentService) Unassign(ctx context.Context, providerID, patientID primitive.ObjectID) error {
	result, err := s.collection().DeleteOne(ctx, bson.M{
		"providerId": providerID,
		"patientId":  patientID,
	})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotAssigned
	}
	return nil
}

// AdminAssign force-links a patient to a provider, detaching any previous
// provider in the same write. Returns reassigned=true when a different
// provider was replaced.
func (s *AssignmentService) AdminAssign(ctx context.Context, admin *models.User, patientID, providerID primitive.ObjectID) (reassigned bool, err error) {
	existing, err := s.ProviderOf(ctx, patientID)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.ProviderID == providerID {
		return false, nil
	}

	_, err = s.collection().ReplaceOne(ctx,
		bson.M{"patientId": patientID},
		models.Assignment{
			PatientID:  patientID,
			ProviderID: providerID,
			AssignedBy: admin.ID,
			CreatedAt:  time.Now(),
		},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// Roster loads the full user records for every patient assigned to a provider.
func (s *AssignmentService) Roster(ctx context.Context, providerID primitive.ObjectID) ([]models.User, error) {
	cursor, err := s.collection().Find(ctx, bson.M{"providerId": providerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []models.Assignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}

	patients := make([]models.User, 0, len(assignments))
	if len(assignments) == 0 {
		return patients, nil
	}

	ids := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.PatientID)
	}

	userCursor, err := s.DB.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer userCursor.Close(ctx)

	if err := userCursor.All(ctx, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}
