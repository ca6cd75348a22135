package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dosetrack/dosetrack-api/internal/middleware"
	"github.com/dosetrack/dosetrack-api/internal/models"
	"github.com/dosetrack/dosetrack-api/internal/services"
)

type ScheduleEntryRequest struct {
	Time string   `json:"time" binding:"required"`
	Days []string `json:"days" binding:"required,min=1,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
}

type CreateMedicationRequest struct {
	PatientID       string                 `json:"patientId"`
	Name            string                 `json:"name" binding:"required"`
	Dosage          string                 `json:"dosage" binding:"required"`
	Frequency       string                 `json:"frequency" binding:"required,oneof=once-daily twice-daily three-times-daily four-times-daily weekly as-needed custom"`
	Schedule        []ScheduleEntryRequest `json:"schedule" binding:"required,min=1,dive"`
	StartDate       string                 `json:"startDate" binding:"required"`
	EndDate         string                 `json:"endDate"`
	Instructions    string                 `json:"instructions"`
	PrescribedBy    string                 `json:"prescribedBy"`
	ReminderEnabled *bool                  `json:"reminderEnabled"`
}

// resolvePrescriber checks that a prescriber id references a user with the
// provider role.
func (h *Handler) resolvePrescriber(ctx context.Context, idHex string) (primitive.ObjectID, bool) {
	prescriberID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	var prescriber models.User
	err = h.DB.Collection("users").FindOne(ctx, bson.M{"_id": prescriberID}).Decode(&prescriber)
	if err != nil || prescriber.Role != models.RoleProvider {
		return primitive.NilObjectID, false
	}
	return prescriberID, true
}

// CreateMedication records a prescription. Patients create for themselves;
// providers and admins create on behalf of a patient.
func (h *Handler) CreateMedication(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var req CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid medication data", "error": err.Error()})
		return
	}

	var patient models.User
	if actor.Role == models.RolePatient {
		patient = *actor
	} else {
		if req.PatientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "patientId is required"})
			return
		}
		patientID, err := primitive.ObjectIDFromHex(req.PatientID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
			return
		}
		err = h.DB.Collection("users").FindOne(context.TODO(), bson.M{"_id": patientID}).Decode(&patient)
		if err != nil || patient.Role != models.RolePatient {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
			return
		}
		if actor.Role == models.RoleProvider {
			ok, err := h.Access.CanAccessPatient(context.TODO(), actor, patientID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to verify patient access"})
				return
			}
			if !ok {
				c.JSON(http.StatusForbidden, gin.H{"message": "You are not authorized to manage this patient"})
				return
			}
		}
	}

	prescribedByHex := req.PrescribedBy
	if prescribedByHex == "" {
		prescribedByHex = actor.ID.Hex()
	}
	prescribedBy, ok := h.resolvePrescriber(context.TODO(), prescribedByHex)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Prescriber must be a user with the provider role"})
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid startDate, use YYYY-MM-DD"})
		return
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := parseDate(req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid endDate, use YYYY-MM-DD"})
			return
		}
		endDate = &parsed
	}

	reminderEnabled := true
	if req.ReminderEnabled != nil {
		reminderEnabled = *req.ReminderEnabled
	}

	med := models.Medication{
		ID:              primitive.NewObjectID(),
		PatientID:       patient.ID,
		Name:            req.Name,
		Dosage:          req.Dosage,
		Frequency:       req.Frequency,
		Schedule:        toScheduleEntries(req.Schedule),
		StartDate:       startDate,
		EndDate:         endDate,
		Instructions:    req.Instructions,
		PrescribedBy:    prescribedBy,
		IsActive:        true,
		ReminderEnabled: reminderEnabled,
		CreatedAt:       time.Now(),
	}

	_, err = h.DB.Collection("medications").InsertOne(context.TODO(), med)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create medication"})
		return
	}

	h.NotificationSvc.SendMedicationConfirmation(&patient, &med)

	c.JSON(http.StatusCreated, gin.H{"medication": med})
}

// ListMedications returns medications visible to the caller, scoped by role.
func (h *Handler) ListMedications(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	filter, err := h.Access.ScopePatientFilter(context.TODO(), actor, c.Query("patientId"))
	if err != nil {
		respondScopeError(c, err)
		return
	}

	if active := c.Query("isActive"); active != "" {
		filter["isActive"] = active == "true"
	}

	cursor, err := h.DB.Collection("medications").Find(context.TODO(), filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve medications"})
		return
	}
	defer cursor.Close(context.TODO())

	var medications []models.Medication
	if err := cursor.All(context.TODO(), &medications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode medications"})
		return
	}
	if medications == nil {
		medications = make([]models.Medication, 0)
	}

	c.JSON(http.StatusOK, gin.H{"medications": medications})
}

// loadAuthorizedMedication fetches a medication by path id and verifies the
// actor may access it. Existence is checked before authorization, so callers
// get 404 for absent or malformed ids and 403 only for real records.
func (h *Handler) loadAuthorizedMedication(c *gin.Context) (*models.Medication, bool) {
	medID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Medication not found"})
		return nil, false
	}

	var med models.Medication
	err = h.DB.Collection("medications").FindOne(context.TODO(), bson.M{"_id": medID}).Decode(&med)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Medication not found"})
		return nil, false
	}

	actor := middleware.CurrentUser(c)
	ok, err := h.Access.CanAccessPatient(context.TODO(), actor, med.PatientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to verify access"})
		return nil, false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "You are not authorized to access this medication"})
		return nil, false
	}

	return &med, true
}

// GetMedication returns a single medication the caller may access.
func (h *Handler) GetMedication(c *gin.Context) {
	med, ok := h.loadAuthorizedMedication(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"medication": med})
}

// UpdateMedication edits a fixed allow-list of fields on a medication.
func (h *Handler) UpdateMedication(c *gin.Context) {
	med, ok := h.loadAuthorizedMedication(c)
	if !ok {
		return
	}

	var req struct {
		Name            *string                 `json:"name"`
		Dosage          *string                 `json:"dosage"`
		Frequency       *string                 `json:"frequency" binding:"omitempty,oneof=once-daily twice-daily three-times-daily four-times-daily weekly as-needed custom"`
		Schedule        *[]ScheduleEntryRequest `json:"schedule" binding:"omitempty,min=1,dive"`
		StartDate       *string                 `json:"startDate"`
		EndDate         *string                 `json:"endDate"`
		Instructions    *string                 `json:"instructions"`
		PrescribedBy    *string                 `json:"prescribedBy"`
		IsActive        *bool                   `json:"isActive"`
		ReminderEnabled *bool                   `json:"reminderEnabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	updates := bson.M{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Dosage != nil {
		updates["dosage"] = *req.Dosage
	}
	if req.Frequency != nil {
		updates["frequency"] = *req.Frequency
	}
	if req.Schedule != nil {
		updates["schedule"] = toScheduleEntries(*req.Schedule)
	}
	if req.StartDate != nil {
		parsed, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid startDate, use YYYY-MM-DD"})
			return
		}
		updates["startDate"] = parsed
	}
	if req.EndDate != nil {
		parsed, err := parseDate(*req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid endDate, use YYYY-MM-DD"})
			return
		}
		updates["endDate"] = parsed
	}
	if req.Instructions != nil {
		updates["instructions"] = *req.Instructions
	}
	if req.PrescribedBy != nil {
		prescribedBy, ok := h.resolvePrescriber(context.TODO(), *req.PrescribedBy)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Prescriber must be a user with the provider role"})
			return
		}
		updates["prescribedBy"] = prescribedBy
	}
	if req.IsActive != nil {
		updates["isActive"] = *req.IsActive
	}
	if req.ReminderEnabled != nil {
		updates["reminderEnabled"] = *req.ReminderEnabled
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "At least one valid field is required to update"})
		return
	}

	var updated models.Medication
	err := h.DB.Collection("medications").FindOneAndUpdate(
		context.TODO(),
		bson.M{"_id": med.ID},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update medication"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medication": updated})
}

// DeleteMedication removes a medication and its adherence logs.
func (h *Handler) DeleteMedication(c *gin.Context) {
	med, ok := h.loadAuthorizedMedication(c)
	if !ok {
		return
	}

	_, err := h.DB.Collection("medications").DeleteOne(context.TODO(), bson.M{"_id": med.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete medication"})
		return
	}

	_, err = h.DB.Collection("adherence_logs").DeleteMany(context.TODO(), bson.M{"medication": med.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Medication deleted but log cleanup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Medication deleted successfully"})
}

// ToggleReminder flips the reminder flag. Unlike the general access check,
// only the medication's own patient can change it.
func (h *Handler) ToggleReminder(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	medID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Medication not found"})
		return
	}

	var med models.Medication
	err = h.DB.Collection("medications").FindOne(context.TODO(), bson.M{"_id": medID}).Decode(&med)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Medication not found"})
		return
	}

	if med.PatientID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only the medication's owner can change its reminders"})
		return
	}

	_, err = h.DB.Collection("medications").UpdateOne(context.TODO(),
		bson.M{"_id": med.ID},
		bson.M{"$set": bson.M{"reminderEnabled": !med.ReminderEnabled}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to toggle reminder"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminderEnabled": !med.ReminderEnabled})
}

func toScheduleEntries(entries []ScheduleEntryRequest) []models.ScheduleEntry {
	schedule := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		schedule = append(schedule, models.ScheduleEntry{Time: e.Time, Days: e.Days})
	}
	return schedule
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// respondScopeError maps access-policy errors onto the response taxonomy.
func respondScopeError(c *gin.Context, err error) {
	switch err {
	case services.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"message": "You are not authorized to view this patient's records"})
	case services.ErrInvalidID:
		c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to resolve access scope"})
	}
}
