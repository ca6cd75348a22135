package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dosetrack/dosetrack-api/internal/middleware"
	"github.com/dosetrack/dosetrack-api/internal/models"
	"github.com/dosetrack/dosetrack-api/internal/services"
)

// GetRoster lists the patients assigned to the acting provider.
func (h *Handler) GetRoster(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	patients, err := h.Assignments.Roster(context.TODO(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve roster"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

// resolvePatientTarget finds the patient referenced by id or email in an
// assignment request.
func (h *Handler) resolvePatientTarget(ctx context.Context, patientIDHex, email string) (*models.User, int, string) {
	filter := bson.M{}
	switch {
	case patientIDHex != "":
		patientID, err := primitive.ObjectIDFromHex(patientIDHex)
		if err != nil {
			return nil, http.StatusNotFound, "Patient not found"
		}
		filter["_id"] = patientID
	case email != "":
		filter["email"] = strings.ToLower(email)
	default:
		return nil, http.StatusBadRequest, "patientId or email is required"
	}

	var target models.User
	err := h.DB.Collection("users").FindOne(ctx, filter).Decode(&target)
	if err != nil {
		return nil, http.StatusNotFound, "Patient not found"
	}
	if target.Role != models.RolePatient {
		return nil, http.StatusForbidden, "Only users with the patient role can be assigned to a provider"
	}
	return &target, 0, ""
}

// AssignPatient links a patient to the acting provider. Re-assigning the same
// patient is a no-op success; a patient already linked to another provider is
// a conflict, which only an admin can override.
func (h *Handler) AssignPatient(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var req struct {
		PatientID string `json:"patientId"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	target, status, message := h.resolvePatientTarget(context.TODO(), req.PatientID, req.Email)
	if target == nil {
		c.JSON(status, gin.H{"message": message})
		return
	}

	alreadyLinked, err := h.Assignments.Assign(context.TODO(), actor, target.ID)
	if err == services.ErrAlreadyAssigned {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Patient is already assigned to another provider"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to assign patient"})
		return
	}
	if alreadyLinked {
		c.JSON(http.StatusOK, gin.H{"message": "Patient is already assigned to you"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Patient assigned successfully", "patient": target})
}

// UnassignPatient removes a patient from the acting provider's roster.
func (h *Handler) UnassignPatient(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	patientID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
		return
	}

	err = h.Assignments.Unassign(context.TODO(), actor.ID, patientID)
	if err == services.ErrNotAssigned {
		c.JSON(http.StatusNotFound, gin.H{"message": "This patient is not assigned to you"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to unassign patient"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Patient unassigned successfully"})
}

// AdminAssign force-links a patient to a provider, detaching any existing
// provider first. Admin only.
func (h *Handler) AdminAssign(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var req struct {
		PatientID  string `json:"patientId" binding:"required"`
		ProviderID string `json:"providerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "patientId and providerId are required"})
		return
	}

	target, status, message := h.resolvePatientTarget(context.TODO(), req.PatientID, "")
	if target == nil {
		c.JSON(status, gin.H{"message": message})
		return
	}

	providerID, err := primitive.ObjectIDFromHex(req.ProviderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Provider not found"})
		return
	}
	var provider models.User
	err = h.DB.Collection("users").FindOne(context.TODO(), bson.M{"_id": providerID}).Decode(&provider)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Provider not found"})
		return
	}
	if provider.Role != models.RoleProvider {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Target user is not a provider"})
		return
	}

	reassigned, err := h.Assignments.AdminAssign(context.TODO(), actor, target.ID, providerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to assign patient"})
		return
	}

	message = "Patient assigned successfully"
	if reassigned {
		message = "Patient reassigned from their previous provider"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
