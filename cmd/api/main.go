package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dosetrack/dosetrack-api/internal/handlers"
	"github.com/dosetrack/dosetrack-api/internal/middleware"
	"github.com/dosetrack/dosetrack-api/internal/models"
	"github.com/dosetrack/dosetrack-api/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Println("WARNING: JWT_SECRET is not set, token operations will fail.")
	}

	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(os.Getenv("MONGO_URI")))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)
	db := client.Database(os.Getenv("MONGO_DATABASE"))
	log.Println("Successfully connected to MongoDB!")

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	handlers.RegisterCustomValidators()

	// --- Initialize Services ---
	notificationSvc := services.NewNotificationService()
	accessSvc := services.NewAccessService(db)
	assignmentSvc := services.NewAssignmentService(db)
	reminderSvc := services.NewReminderService(db, notificationSvc)

	// --- Initialize Handlers ---
	h := handlers.NewHandler(db, accessSvc, assignmentSvc, notificationSvc)

	// --- Gin Router ---
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// --- Routes ---
	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
	}

	apiRoutes := r.Group("/api")
	apiRoutes.Use(middleware.Auth(db))
	{
		apiRoutes.GET("/auth/me", h.GetCurrentUser)
		apiRoutes.PUT("/auth/me", h.UpdateCurrentUser)

		adminRoutes := apiRoutes.Group("/auth", middleware.RequireRole(models.RoleAdmin))
		{
			adminRoutes.GET("/users", h.ListUsers)
			adminRoutes.GET("/users/:id", h.GetUser)
			adminRoutes.PUT("/users/:id", h.UpdateUser)
			adminRoutes.DELETE("/users/:id", h.DeleteUser)
			adminRoutes.GET("/stats", h.GetUserStats)
		}

		apiRoutes.POST("/medications", h.CreateMedication)
		apiRoutes.GET("/medications", h.ListMedications)
		apiRoutes.GET("/medications/:id", h.GetMedication)
		apiRoutes.PUT("/medications/:id", h.UpdateMedication)
		apiRoutes.DELETE("/medications/:id", h.DeleteMedication)
		apiRoutes.PATCH("/medications/:id/reminder", h.ToggleReminder)

		apiRoutes.POST("/adherence", h.CreateAdherenceLog)
		apiRoutes.GET("/adherence", h.ListAdherenceLogs)
		apiRoutes.GET("/adherence/stats", h.GetAdherenceStats)
		apiRoutes.GET("/adherence/predict", h.PredictAdherence)
		apiRoutes.PUT("/adherence/:id", h.UpdateAdherenceLog)
		apiRoutes.DELETE("/adherence/:id", h.DeleteAdherenceLog)

		providerRoutes := apiRoutes.Group("/provider", middleware.RequireRole(models.RoleProvider))
		{
			providerRoutes.GET("/patients", h.GetRoster)
			providerRoutes.POST("/patients", h.AssignPatient)
			providerRoutes.DELETE("/patients/:id", h.UnassignPatient)
		}

		apiRoutes.POST("/admin/assign", middleware.RequireRole(models.RoleAdmin), h.AdminAssign)

		apiRoutes.POST("/chat", h.HandleChat)
	}

	// --- Reminder Scan ---
	interval := os.Getenv("REMINDER_INTERVAL")
	if interval == "" {
		interval = "5m"
	}
	if err := reminderSvc.Start(interval); err != nil {
		log.Fatalf("Failed to start reminder scan: %v", err)
	}
	defer reminderSvc.Stop()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting server on port %s", port)
	r.Run(":" + port)
}

// ensureIndexes creates the unique indexes the domain rules rely on: one
// account per email, one provider per patient.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("assignments").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "patientId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func corsOrigins() []string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return []string{origins}
	}
	return []string{"*"}
}
