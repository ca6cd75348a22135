package handlers

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dosetrack/dosetrack-api/internal/services"
)

// Handler bundles the database and domain services every route needs.
type Handler struct {
	DB              *mongo.Database
	Access          *services.AccessService
	Assignments     *services.AssignmentService
	NotificationSvc *services.NotificationService
}

func NewHandler(db *mongo.Database, access *services.AccessService, assignments *services.AssignmentService, notificationSvc *services.NotificationService) *Handler {
	return &Handler{
		DB:              db,
		Access:          access,
		Assignments:     assignments,
		NotificationSvc: notificationSvc,
	}
}
