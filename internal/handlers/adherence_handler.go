package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dosetrack/dosetrack-api/internal/middleware"
	"github.com/dosetrack/dosetrack-api/internal/models"
	"github.com/dosetrack/dosetrack-api/internal/services"
)

const defaultPredictionWindowDays = 30

// CreateAdherenceLog records one dose event against a medication.
func (h *Handler) CreateAdherenceLog(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var req struct {
		MedicationID  string `json:"medicationId" binding:"required"`
		ScheduledTime string `json:"scheduledTime" binding:"required"`
		Status        string `json:"status" binding:"required,oneof=taken missed skipped pending"`
		TakenAt       string `json:"takenAt"`
		Notes         string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid adherence data", "error": err.Error()})
		return
	}

	medID, err := primitive.ObjectIDFromHex(req.MedicationID)
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

	if actor.Role == models.RolePatient && med.PatientID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only log doses for your own medications"})
		return
	}

	scheduledTime, err := time.Parse(time.RFC3339, req.ScheduledTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid scheduledTime, use RFC3339"})
		return
	}

	patientID := med.PatientID
	if actor.Role == models.RolePatient {
		patientID = actor.ID
	}

	var takenAt *time.Time
	if req.TakenAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.TakenAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid takenAt, use RFC3339"})
			return
		}
		takenAt = &parsed
	} else if req.Status == models.StatusTaken {
		now := time.Now()
		takenAt = &now
	}

	entry := models.AdherenceLog{
		ID:            primitive.NewObjectID(),
		PatientID:     patientID,
		MedicationID:  medID,
		ScheduledTime: scheduledTime,
		TakenAt:       takenAt,
		Status:        req.Status,
		Notes:         req.Notes,
		CreatedAt:     time.Now(),
	}

	_, err = h.DB.Collection("adherence_logs").InsertOne(context.TODO(), entry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record adherence log"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"log": entry})
}

// adherenceListFilter builds the role-scoped query plus the optional
// medicationId, status and inclusive scheduledTime date-range filters.
func (h *Handler) adherenceListFilter(c *gin.Context) (bson.M, bool) {
	actor := middleware.CurrentUser(c)

	filter, err := h.Access.ScopePatientFilter(context.TODO(), actor, c.Query("patientId"))
	if err != nil {
		respondScopeError(c, err)
		return nil, false
	}

	if medHex := c.Query("medicationId"); medHex != "" {
		medID, err := primitive.ObjectIDFromHex(medHex)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Medication not found"})
			return nil, false
		}
		filter["medication"] = medID
	}

	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	timeRange := bson.M{}
	if startStr := c.Query("startDate"); startStr != "" {
		start, err := parseDate(startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid startDate, use YYYY-MM-DD"})
			return nil, false
		}
		timeRange["$gte"] = start
	}
	if endStr := c.Query("endDate"); endStr != "" {
		end, err := parseDate(endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid endDate, use YYYY-MM-DD"})
			return nil, false
		}
		// Inclusive upper bound covering the whole end day.
		timeRange["$lte"] = end.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	if len(timeRange) > 0 {
		filter["scheduledTime"] = timeRange
	}

	return filter, true
}

// ListAdherenceLogs returns dose logs visible to the caller, newest first.
func (h *Handler) ListAdherenceLogs(c *gin.Context) {
	filter, ok := h.adherenceListFilter(c)
	if !ok {
		return
	}

	cursor, err := h.DB.Collection("adherence_logs").Find(context.TODO(), filter,
		options.Find().SetSort(bson.D{{Key: "scheduledTime", Value: -1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve adherence logs"})
		return
	}
	defer cursor.Close(context.TODO())

	var logs []models.AdherenceLog
	if err := cursor.All(context.TODO(), &logs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode adherence logs"})
		return
	}
	if logs == nil {
		logs = make([]models.AdherenceLog, 0)
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetAdherenceStats groups the caller's visible logs by status and returns
// counts with percentages.
func (h *Handler) GetAdherenceStats(c *gin.Context) {
	filter, ok := h.adherenceListFilter(c)
	if !ok {
		return
	}

	cursor, err := h.DB.Collection("adherence_logs").Aggregate(context.TODO(), mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute adherence stats"})
		return
	}
	defer cursor.Close(context.TODO())

	var counts []services.StatusCount
	if err := cursor.All(context.TODO(), &counts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode adherence stats"})
		return
	}

	c.JSON(http.StatusOK, services.BuildAdherenceStats(counts))
}

// PredictAdherence runs the adherence heuristic over a recent window of the
// patient's logs. Patients get their own forecast; providers and admins may
// request one for a patient they can access.
func (h *Handler) PredictAdherence(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	patientID := actor.ID
	if actor.Role != models.RolePatient {
		requested := c.Query("patientId")
		if requested == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "patientId is required"})
			return
		}
		parsed, err := primitive.ObjectIDFromHex(requested)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
			return
		}
		ok, err := h.Access.CanAccessPatient(context.TODO(), actor, parsed)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to verify access"})
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"message": "You are not authorized to view this patient's records"})
			return
		}
		patientID = parsed
	}

	windowDays := defaultPredictionWindowDays
	if daysStr := c.Query("days"); daysStr != "" {
		if days, err := strconv.Atoi(daysStr); err == nil && days > 0 {
			windowDays = days
		}
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	cursor, err := h.DB.Collection("adherence_logs").Find(context.TODO(), bson.M{
		"patient":       patientID,
		"scheduledTime": bson.M{"$gte": since},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve adherence logs"})
		return
	}
	defer cursor.Close(context.TODO())

	var logs []models.AdherenceLog
	if err := cursor.All(context.TODO(), &logs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode adherence logs"})
		return
	}

	c.JSON(http.StatusOK, services.PredictAdherence(logs))
}

// loadAuthorizedLog fetches a log by path id with the shared ownership shape:
// existence first, then the role-based access check.
func (h *Handler) loadAuthorizedLog(c *gin.Context) (*models.AdherenceLog, bool) {
	logID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Adherence log not found"})
		return nil, false
	}

	var entry models.AdherenceLog
	err = h.DB.Collection("adherence_logs").FindOne(context.TODO(), bson.M{"_id": logID}).Decode(&entry)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Adherence log not found"})
		return nil, false
	}

	actor := middleware.CurrentUser(c)
	ok, err := h.Access.CanAccessPatient(context.TODO(), actor, entry.PatientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to verify access"})
		return nil, false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"message": "You are not authorized to access this adherence log"})
		return nil, false
	}

	return &entry, true
}

// UpdateAdherenceLog edits the mutable fields of a dose log.
func (h *Handler) UpdateAdherenceLog(c *gin.Context) {
	entry, ok := h.loadAuthorizedLog(c)
	if !ok {
		return
	}

	var req struct {
		Status        *string `json:"status" binding:"omitempty,oneof=taken missed skipped pending"`
		ScheduledTime *string `json:"scheduledTime"`
		TakenAt       *string `json:"takenAt"`
		Notes         *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	updates := bson.M{}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.ScheduledTime != nil {
		parsed, err := time.Parse(time.RFC3339, *req.ScheduledTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid scheduledTime, use RFC3339"})
			return
		}
		updates["scheduledTime"] = parsed
	}
	if req.TakenAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.TakenAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid takenAt, use RFC3339"})
			return
		}
		updates["takenAt"] = parsed
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "At least one valid field is required to update"})
		return
	}

	var updated models.AdherenceLog
	err := h.DB.Collection("adherence_logs").FindOneAndUpdate(
		context.TODO(),
		bson.M{"_id": entry.ID},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update adherence log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"log": updated})
}

// DeleteAdherenceLog removes a dose log.
func (h *Handler) DeleteAdherenceLog(c *gin.Context) {
	entry, ok := h.loadAuthorizedLog(c)
	if !ok {
		return
	}

	_, err := h.DB.Collection("adherence_logs").DeleteOne(context.TODO(), bson.M{"_id": entry.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete adherence log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Adherence log deleted successfully"})
}
