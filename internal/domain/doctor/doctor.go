package doctor

import (
	"errors"
	"time"

	"github.com/geocoder89/medconnect/internal/domain/category"
)

var ErrNotFound = errors.New("doctor not found")

type Doctor struct {
	ID           string              `json:"id"`
	UserID       string              `json:"userId"`
	FullName     string              `json:"fullName"`
	Phone        string              `json:"phone"`
	Degree       string              `json:"degree"`
	Experience   int                 `json:"experience"`
	Description  string              `json:"description"`
	ProfileImage *string             `json:"profileImage,omitempty"`
	Categories   []category.Category `json:"categories"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Category *string
}
