// Package signup turns the flat signup payload into one of three
// role-specific registrations, each carrying exactly the fields its role
// requires.
package signup

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/go-playground/validator/v10"
)

var ErrUnknownRole = errors.New("unknown role")

// Request is the wire shape accepted by POST /auth/signup. Role-specific
// fields are optional here and enforced once the role is known.
type Request struct {
	Email        string   `json:"email" binding:"required,email"`
	Password     string   `json:"password" binding:"required,min=6"`
	Role         string   `json:"role" binding:"required,oneof=PATIENT DOCTOR PROVIDER"`
	FullName     string   `json:"fullName" binding:"omitempty,max=120"`
	Phone        string   `json:"phone" binding:"omitempty,max=32"`
	Degree       string   `json:"degree" binding:"omitempty,max=120"`
	Experience   *int     `json:"experience" binding:"omitempty,min=0,max=80"`
	Description  string   `json:"description" binding:"omitempty,max=2000"`
	ProfileImage *string  `json:"profileImage" binding:"omitempty,url"`
	Name         string   `json:"name" binding:"omitempty,max=120"`
	Address      string   `json:"address" binding:"omitempty,max=300"`
	Categories   []string `json:"categories" binding:"omitempty,max=8,dive,required,max=60"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

// Registration is implemented by PatientRegistration, DoctorRegistration and
// ProviderRegistration only.
type Registration interface {
	Role() user.Role
	Creds() Credentials
	isRegistration()
}

type PatientRegistration struct {
	Credentials
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type DoctorRegistration struct {
	Credentials
	FullName     string  `json:"fullName" validate:"required"`
	Phone        string  `json:"phone" validate:"required"`
	Degree       string  `json:"degree" validate:"required"`
	Experience   *int    `json:"experience" validate:"required,min=0"`
	Description  string  `json:"description" validate:"required"`
	ProfileImage *string `json:"profileImage" validate:"omitempty,url"`
	// category names, linked at signup
	Categories []string `json:"categories" validate:"omitempty,dive,required"`
}

type ProviderRegistration struct {
	Credentials
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func (PatientRegistration) Role() user.Role  { return user.RolePatient }
func (DoctorRegistration) Role() user.Role   { return user.RoleDoctor }
func (ProviderRegistration) Role() user.Role { return user.RoleProvider }

func (r PatientRegistration) Creds() Credentials  { return r.Credentials }
func (r DoctorRegistration) Creds() Credentials   { return r.Credentials }
func (r ProviderRegistration) Creds() Credentials { return r.Credentials }

func (PatientRegistration) isRegistration()  {}
func (DoctorRegistration) isRegistration()   {}
func (ProviderRegistration) isRegistration() {}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// max counts runes; bcrypt limits bytes
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

// Registration selects the variant for req.Role, copies the fields that
// variant owns and validates it. Validation failures are returned as
// validator.ValidationErrors.
func (req Request) Registration() (Registration, error) {
	creds := Credentials{
		Email:    user.NormalizeEmail(req.Email),
		Password: req.Password,
	}

	var reg Registration

	switch user.Role(req.Role) {
	case user.RolePatient:
		reg = PatientRegistration{
			Credentials: creds,
			FullName:    strings.TrimSpace(req.FullName),
			Phone:       strings.TrimSpace(req.Phone),
		}
	case user.RoleDoctor:
		reg = DoctorRegistration{
			Credentials:  creds,
			FullName:     strings.TrimSpace(req.FullName),
			Phone:        strings.TrimSpace(req.Phone),
			Degree:       strings.TrimSpace(req.Degree),
			Experience:   req.Experience,
			Description:  strings.TrimSpace(req.Description),
			ProfileImage: req.ProfileImage,
			Categories:   trimAll(req.Categories),
		}
	case user.RoleProvider:
		reg = ProviderRegistration{
			Credentials: creds,
			Name:        strings.TrimSpace(req.Name),
			Phone:       strings.TrimSpace(req.Phone),
			Address:     strings.TrimSpace(req.Address),
			Description: strings.TrimSpace(req.Description),
		}
	default:
		return nil, ErrUnknownRole
	}

	if err := validate.Struct(reg); err != nil {
		return nil, err
	}

	return reg, nil
}

func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
