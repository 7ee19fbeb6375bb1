package apiclient

import "time"

type Role string

const (
	RolePatient  Role = "PATIENT"
	RoleDoctor   Role = "DOCTOR"
	RoleProvider Role = "PROVIDER"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SignupRequest carries the fields of every role; the server enforces which
// ones Role requires.
type SignupRequest struct {
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Role         Role     `json:"role"`
	FullName     string   `json:"fullName,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Degree       string   `json:"degree,omitempty"`
	Experience   *int     `json:"experience,omitempty"`
	Description  string   `json:"description,omitempty"`
	ProfileImage *string  `json:"profileImage,omitempty"`
	Name         string   `json:"name,omitempty"`
	Address      string   `json:"address,omitempty"`
	Categories   []string `json:"categories,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Doctor struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	FullName     string     `json:"fullName"`
	Phone        string     `json:"phone"`
	Degree       string     `json:"degree"`
	Experience   int        `json:"experience"`
	Description  string     `json:"description"`
	ProfileImage *string    `json:"profileImage,omitempty"`
	Categories   []Category `json:"categories"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Account struct {
	Email string `json:"email"`
}

type Patient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      Account   `json:"user"`
}

type ConsultationPatient struct {
	FullName string  `json:"fullName"`
	Phone    string  `json:"phone"`
	User     Account `json:"user"`
}

type Consultation struct {
	ID            string              `json:"id"`
	DoctorID      string              `json:"doctorId"`
	PatientID     string              `json:"patientId"`
	ScheduledTime time.Time           `json:"scheduledTime"`
	Status        string              `json:"status"`
	Notes         *string             `json:"notes,omitempty"`
	Prescription  *string             `json:"prescription,omitempty"`
	Patient       ConsultationPatient `json:"patient"`
}
