package category

import "errors"

var ErrUnknown = errors.New("unknown category")

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Defaults is the catalogue seeded on first start.
var Defaults = []string{
	"Cardiology",
	"Dermatology",
	"Neurology",
	"Orthopedics",
	"Pediatrics",
	"Psychiatry",
	"Radiology",
	"Oncology",
}
