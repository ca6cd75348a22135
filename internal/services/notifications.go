package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

const textbeltURL = "https://textbelt.com/text"

// NotificationService delivers dose reminders over SMS via Textbelt.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// SendDoseReminder notifies a patient that a dose is due. Delivery runs in a
// goroutine so reminder scans and API responses never block on the SMS
// gateway; failures are logged, not propagated.
func (s *NotificationService) SendDoseReminder(patient *models.User, med *models.Medication, doseTime string) {
	if patient.PhoneNumber == "" {
		log.Printf("Reminder not sent: patient %s has no phone number", patient.ID.Hex())
		return
	}

	go sendSMS(patient.PhoneNumber, doseReminderMessage(med, doseTime))
}

// SendMedicationConfirmation notifies a patient that a medication was added
// to their plan, same delivery path as dose reminders.
func (s *NotificationService) SendMedicationConfirmation(patient *models.User, med *models.Medication) {
	if patient.PhoneNumber == "" {
		log.Printf("Confirmation not sent: patient %s has no phone number", patient.ID.Hex())
		return
	}

	go sendSMS(patient.PhoneNumber, medicationConfirmationMessage(med))
}

func doseReminderMessage(med *models.Medication, doseTime string) string {
	return fmt.Sprintf("Medication reminder: %s (%s) is due at %s.", med.Name, med.Dosage, doseTime)
}

func medicationConfirmationMessage(med *models.Medication) string {
	return fmt.Sprintf("New medication on your plan: %s (%s), %s. Contact your provider with any questions.",
		med.Name, med.Dosage, med.Frequency)
}

func sendSMS(phone, message string) {
	payload, _ := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     os.Getenv("TEXTBELT_API_KEY"),
	})

	resp, err := http.Post(textbeltURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("Failed to reach SMS gateway for %s: %v", phone, err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("Failed to decode SMS gateway response for %s: %v", phone, err)
		return
	}

	if !result.Success {
		log.Printf("SMS to %s rejected by gateway: %s", phone, result.Error)
		return
	}
	log.Printf("Reminder SMS sent to %s", phone)
}
