package consultation

import (
	"time"

	"github.com/geocoder89/medconnect/internal/domain/patient"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

type Consultation struct {
	ID            string    `json:"id"`
	DoctorID      string    `json:"doctorId"`
	PatientID     string    `json:"patientId"`
	ScheduledTime time.Time `json:"scheduledTime"`
	Status        Status    `json:"status"`
	Notes         *string   `json:"notes,omitempty"`
	Prescription  *string   `json:"prescription,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Patient       Patient   `json:"patient"`
}

// Patient is the summary embedded in a doctor's queue.
type Patient struct {
	FullName string          `json:"fullName"`
	Phone    string          `json:"phone"`
	User     patient.Account `json:"user"`
}
