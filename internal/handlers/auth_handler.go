package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dosetrack/dosetrack-api/internal/middleware"
	"github.com/dosetrack/dosetrack-api/internal/models"
	"github.com/dosetrack/dosetrack-api/internal/utils"
)

type AddressRequest struct {
	StreetAddress string `json:"streetAddress" binding:"required"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state" binding:"required,len=2"`
	Zipcode       string `json:"zipcode" binding:"required,len=5,numeric"`
}

type RegisterUserRequest struct {
	FirstName   string         `json:"firstName" binding:"required"`
	LastName    string         `json:"lastName" binding:"required"`
	Email       string         `json:"email" binding:"required,email"`
	Password    string         `json:"password" binding:"required,strongpassword"`
	Role        string         `json:"role" binding:"omitempty,oneof=admin patient provider"`
	PhoneNumber string         `json:"phoneNumber" binding:"required,len=10,numeric"`
	DateOfBirth string         `json:"dateOfBirth" binding:"required"`
	Gender      string         `json:"gender" binding:"required,oneof=male female other"`
	Address     AddressRequest `json:"address" binding:"required"`
}

// RegisterUser creates an account and returns a signed token with the profile.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid registration data", "error": err.Error()})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RolePatient
	}

	user := models.User{
		ID:          primitive.NewObjectID(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       strings.ToLower(req.Email),
		Password:    hashedPassword,
		Role:        role,
		PhoneNumber: req.PhoneNumber,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Address: models.Address{
			StreetAddress: req.Address.StreetAddress,
			City:          req.Address.City,
			State:         req.Address.State,
			Zipcode:       req.Address.Zipcode,
		},
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	_, err = h.DB.Collection("users").InsertOne(context.TODO(), user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "An account with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login verifies credentials and returns a fresh token with the profile.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(context.TODO(), bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"message": "Account is deactivated"})
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GetCurrentUser returns the caller's profile.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

// UpdateCurrentUser lets a user edit their own profile. Email, role and
// active flag are admin-only and deliberately absent from the allow-list.
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req struct {
		FirstName   *string         `json:"firstName"`
		LastName    *string         `json:"lastName"`
		PhoneNumber *string         `json:"phoneNumber"`
		DateOfBirth *string         `json:"dateOfBirth"`
		Gender      *string         `json:"gender"`
		Address     *AddressRequest `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	updates := bson.M{}
	if req.FirstName != nil {
		updates["firstName"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["lastName"] = *req.LastName
	}
	if req.PhoneNumber != nil {
		updates["phoneNumber"] = *req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		updates["dateOfBirth"] = *req.DateOfBirth
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.Address != nil {
		updates["address"] = models.Address{
			StreetAddress: req.Address.StreetAddress,
			City:          req.Address.City,
			State:         req.Address.State,
			Zipcode:       req.Address.Zipcode,
		}
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "At least one valid field is required to update"})
		return
	}

	var updated models.User
	err := h.DB.Collection("users").FindOneAndUpdate(
		context.TODO(),
		bson.M{"_id": user.ID},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// ListUsers returns all users, optionally filtered by role or active flag.
// Admin only.
func (h *Handler) ListUsers(c *gin.Context) {
	filter := bson.M{}
	if role := c.Query("role"); role != "" {
		filter["role"] = role
	}
	if active := c.Query("isActive"); active != "" {
		filter["isActive"] = active == "true"
	}

	cursor, err := h.DB.Collection("users").Find(context.TODO(), filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve users"})
		return
	}
	defer cursor.Close(context.TODO())

	var users []models.User
	if err := cursor.All(context.TODO(), &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode users"})
		return
	}
	if users == nil {
		users = make([]models.User, 0)
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser returns one user by id. Admin only.
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	var user models.User
	err = h.DB.Collection("users").FindOne(context.TODO(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateUser lets an admin edit any user, including role and active flag.
func (h *Handler) UpdateUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	var req struct {
		FirstName   *string         `json:"firstName"`
		LastName    *string         `json:"lastName"`
		Email       *string         `json:"email" binding:"omitempty,email"`
		Role        *string         `json:"role" binding:"omitempty,oneof=admin patient provider"`
		PhoneNumber *string         `json:"phoneNumber"`
		DateOfBirth *string         `json:"dateOfBirth"`
		Gender      *string         `json:"gender" binding:"omitempty,oneof=male female other"`
		Address     *AddressRequest `json:"address"`
		IsActive    *bool           `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	updates := bson.M{}
	if req.FirstName != nil {
		updates["firstName"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["lastName"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(*req.Email)
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.PhoneNumber != nil {
		updates["phoneNumber"] = *req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		updates["dateOfBirth"] = *req.DateOfBirth
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.Address != nil {
		updates["address"] = models.Address{
			StreetAddress: req.Address.StreetAddress,
			City:          req.Address.City,
			State:         req.Address.State,
			Zipcode:       req.Address.Zipcode,
		}
	}
	if req.IsActive != nil {
		updates["isActive"] = *req.IsActive
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "At least one valid field is required to update"})
		return
	}

	var updated models.User
	err = h.DB.Collection("users").FindOneAndUpdate(
		context.TODO(),
		bson.M{"_id": userID},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "An account with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// DeleteUser removes a user and any assignments referencing them. Admin only.
func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	result, err := h.DB.Collection("users").DeleteOne(context.TODO(), bson.M{"_id": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete user"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	// Orphaned assignment rows would leak the deleted user into rosters.
	_, err = h.DB.Collection("assignments").DeleteMany(context.TODO(), bson.M{
		"$or": []bson.M{
			{"patientId": userID},
			{"providerId": userID},
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "User deleted but assignment cleanup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GetUserStats returns aggregate counts for the admin dashboard.
func (h *Handler) GetUserStats(c *gin.Context) {
	users := h.DB.Collection("users")

	cursor, err := users.Aggregate(context.TODO(), mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}
	defer cursor.Close(context.TODO())

	var roleCounts []struct {
		Role  string `bson:"_id" json:"role"`
		Count int64  `bson:"count" json:"count"`
	}
	if err := cursor.All(context.TODO(), &roleCounts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode stats"})
		return
	}

	var total int64
	for _, rc := range roleCounts {
		total += rc.Count
	}

	active, err := users.CountDocuments(context.TODO(), bson.M{"isActive": true})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}

	medications, err := h.DB.Collection("medications").CountDocuments(context.TODO(), bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}
	logs, err := h.DB.Collection("adherence_logs").CountDocuments(context.TODO(), bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalUsers":         total,
		"activeUsers":        active,
		"inactiveUsers":      total - active,
		"roles":              roleCounts,
		"totalMedications":   medications,
		"totalAdherenceLogs": logs,
	})
}
