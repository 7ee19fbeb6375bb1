package patient

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("patient not found")

type Patient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      Account   `json:"user"`
}

// Account is the slice of the owning user that is safe to embed.
type Account struct {
	Email string `json:"email"`
}
