package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

// reminderLeadWindow is how far before a scheduled dose a reminder fires.
// A scan finding a dose due within [0, leadWindow] of now emits the reminder.
const reminderLeadWindow = 5 * time.Minute

// ReminderService periodically scans active medications and notifies patients
// of upcoming doses. The clock is injected so scans are testable; Start and
// Stop tie the job to the process lifecycle instead of a package-level cron.
//
// Scans are stateless: there is no de-duplication across runs, so an interval
// longer than the lead window can skip doses and a shorter one can repeat
// them. Keep the interval at or near the 5 minute window.
type ReminderService struct {
	db       *mongo.Database
	notifier *NotificationService
	cron     *cron.Cron
	now      func() time.Time
}

func NewReminderService(db *mongo.Database, notifier *NotificationService) *ReminderService {
	return &ReminderService{
		db:       db,
		notifier: notifier,
		now:      time.Now,
	}
}

// Start schedules the scan at the given interval ("5m", "10m", ...).
func (s *ReminderService) Start(interval string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc("@every "+interval, func() {
		if err := s.Scan(context.Background()); err != nil {
			log.Printf("Reminder scan failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("Reminder scan running every %s", interval)
	return nil
}

func (s *ReminderService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Scan finds every active, reminder-enabled medication with a dose due within
// the lead window and sends the patient a reminder.
func (s *ReminderService) Scan(ctx context.Context) error {
	now := s.now()
	weekday := now.Weekday().String()

	cursor, err := s.db.Collection("medications").Find(ctx, bson.M{
		"isActive":        true,
		"reminderEnabled": true,
		"schedule.days":   weekday,
	})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var medications []models.Medication
	if err := cursor.All(ctx, &medications); err != nil {
		return err
	}

	patients := map[primitive.ObjectID]*models.User{}
	for i := range medications {
		med := &medications[i]
		for _, doseTime := range DueDoseTimes(*med, now, reminderLeadWindow) {
			patient, ok := patients[med.PatientID]
			if !ok {
				var u models.User
				err := s.db.Collection("users").FindOne(ctx, bson.M{"_id": med.PatientID}).Decode(&u)
				if err != nil {
					log.Printf("Reminder skipped: patient %s not found for medication %s", med.PatientID.Hex(), med.ID.Hex())
					continue
				}
				patient = &u
				patients[med.PatientID] = patient
			}

			log.Printf("Dose reminder: patient=%s medication=%s time=%s", patient.ID.Hex(), med.Name, doseTime)
			s.notifier.SendDoseReminder(patient, med, doseTime)
		}
	}
	return nil
}

// DueDoseTimes returns the schedule times ("HH:MM") of a medication that fall
// on now's weekday and start within [0, window] from now.
func DueDoseTimes(med models.Medication, now time.Time, window time.Duration) []string {
	weekday := now.Weekday().String()

	var due []string
	for _, entry := range med.Schedule {
		if !containsDay(entry.Days, weekday) {
			continue
		}
		parsed, err := time.Parse("15:04", entry.Time)
		if err != nil {
			continue
		}
		target := time.Date(now.Year(), now.Month(), now.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, now.Location())

		lead := target.Sub(now)
		if lead >= 0 && lead <= window {
			due = append(due, entry.Time)
		}
	}
	return due
}

func containsDay(days []string, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
