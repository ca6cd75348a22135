package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

func TestDoseReminderMessage(t *testing.T) {
	med := &models.Medication{Name: "Lisinopril", Dosage: "10mg"}

	message := doseReminderMessage(med, "08:00")

	assert.Equal(t, "Medication reminder: Lisinopril (10mg) is due at 08:00.", message)
}

func TestMedicationConfirmationMessage(t *testing.T) {
	med := &models.Medication{Name: "Metformin", Dosage: "500mg", Frequency: "twice-daily"}

	message := medicationConfirmationMessage(med)

	assert.Contains(t, message, "Metformin (500mg)")
	assert.Contains(t, message, "twice-daily")
}
