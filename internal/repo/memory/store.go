// Package memory is an in-process implementation of every repository the
// HTTP layer needs. It backs STORE_DRIVER=memory and the handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/medconnect/internal/domain/category"
	"github.com/geocoder89/medconnect/internal/domain/consultation"
	"github.com/geocoder89/medconnect/internal/domain/doctor"
	"github.com/geocoder89/medconnect/internal/domain/patient"
	"github.com/geocoder89/medconnect/internal/domain/provider"
	"github.com/geocoder89/medconnect/internal/domain/signup"
	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	users   map[string]user.User
	byEmail map[string]string

	patients     map[string]patient.Patient
	doctors      map[string]doctor.Doctor
	providers    map[string]provider.Provider
	doctorOrder  []string
	patientOrder []string

	categories map[string]category.Category // by name
	doctorCats map[string][]string          // doctor id -> category names

	consultations map[string]consultation.Consultation

	now func() time.Time
}

// NewStore returns an empty store with the default categories seeded.
func NewStore() *Store {
	s := &Store{
		users:         make(map[string]user.User),
		byEmail:       make(map[string]string),
		patients:      make(map[string]patient.Patient),
		doctors:       make(map[string]doctor.Doctor),
		providers:     make(map[string]provider.Provider),
		categories:    make(map[string]category.Category),
		doctorCats:    make(map[string][]string),
		consultations: make(map[string]consultation.Consultation),
		now:           time.Now,
	}

	for _, name := range category.Defaults {
		s.categories[name] = category.Category{ID: uuid.NewString(), Name: name}
	}

	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Users() *UsersRepo                 { return &UsersRepo{s: s} }
func (s *Store) Doctors() *DoctorsRepo             { return &DoctorsRepo{s: s} }
func (s *Store) Patients() *PatientsRepo           { return &PatientsRepo{s: s} }
func (s *Store) Providers() *ProvidersRepo         { return &ProvidersRepo{s: s} }
func (s *Store) Consultations() *ConsultationsRepo { return &ConsultationsRepo{s: s} }
func (s *Store) Categories() *CategoriesRepo       { return &CategoriesRepo{s: s} }

type UsersRepo struct{ s *Store }

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.users[id], nil
}

// CreateAccount validates everything before writing so a failed signup
// leaves no partial state behind.
func (r *UsersRepo) CreateAccount(_ context.Context, reg signup.Registration, passwordHash string) (user.User, error) {
	s := r.s
	now := s.now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(reg.Creds().Email),
		PasswordHash: passwordHash,
		Role:         reg.Role(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[u.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	switch p := reg.(type) {
	case signup.PatientRegistration:
		pt := patient.Patient{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			FullName:  p.FullName,
			Phone:     p.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.patients[pt.ID] = pt
		s.patientOrder = append(s.patientOrder, pt.ID)

	case signup.DoctorRegistration:
		names := dedupe(p.Categories)
		for _, name := range names {
			if _, ok := s.categories[name]; !ok {
				return user.User{}, category.ErrUnknown
			}
		}

		d := doctor.Doctor{
			ID:           uuid.NewString(),
			UserID:       u.ID,
			FullName:     p.FullName,
			Phone:        p.Phone,
			Degree:       p.Degree,
			Experience:   *p.Experience,
			Description:  p.Description,
			ProfileImage: p.ProfileImage,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.doctors[d.ID] = d
		s.doctorOrder = append(s.doctorOrder, d.ID)
		if len(names) > 0 {
			s.doctorCats[d.ID] = names
		}

	case signup.ProviderRegistration:
		pr := provider.Provider{
			ID:          uuid.NewString(),
			UserID:      u.ID,
			Name:        p.Name,
			Phone:       p.Phone,
			Address:     p.Address,
			Description: p.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.providers[pr.ID] = pr

	default:
		return user.User{}, signup.ErrUnknownRole
	}

	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID

	return u, nil
}

type DoctorsRepo struct{ s *Store }

func (r *DoctorsRepo) List(_ context.Context, filter doctor.ListFilter) ([]doctor.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	output := make([]doctor.Doctor, 0, len(r.s.doctorOrder))

	for _, id := range r.s.doctorOrder {
		if filter.Category != nil && !contains(r.s.doctorCats[id], *filter.Category) {
			continue
		}
		output = append(output, r.s.withCategories(r.s.doctors[id]))
	}

	return output, nil
}

func (r *DoctorsRepo) GetByID(_ context.Context, id string) (doctor.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return doctor.Doctor{}, doctor.ErrNotFound
	}
	return r.s.withCategories(d), nil
}

// caller holds s.mu
func (s *Store) withCategories(d doctor.Doctor) doctor.Doctor {
	d.Categories = make([]category.Category, 0, len(s.doctorCats[d.ID]))

	for _, name := range s.doctorCats[d.ID] {
		d.Categories = append(d.Categories, s.categories[name])
	}

	sort.Slice(d.Categories, func(i, j int) bool {
		return d.Categories[i].Name < d.Categories[j].Name
	})
	return d
}

type PatientsRepo struct{ s *Store }

func (r *PatientsRepo) List(_ context.Context) ([]patient.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	output := make([]patient.Patient, 0, len(r.s.patientOrder))

	for _, id := range r.s.patientOrder {
		output = append(output, r.s.withAccount(r.s.patients[id]))
	}
	return output, nil
}

func (r *PatientsRepo) GetByUserID(_ context.Context, userID string) (patient.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.patients {
		if p.UserID == userID {
			return r.s.withAccount(p), nil
		}
	}
	return patient.Patient{}, patient.ErrNotFound
}

// caller holds s.mu
func (s *Store) withAccount(p patient.Patient) patient.Patient {
	p.User = patient.Account{Email: s.users[p.UserID].Email}
	return p
}

type ProvidersRepo struct{ s *Store }

func (r *ProvidersRepo) GetByUserID(_ context.Context, userID string) (provider.Provider, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.providers {
		if p.UserID == userID {
			return p, nil
		}
	}
	return provider.Provider{}, provider.ErrNotFound
}

type ConsultationsRepo struct{ s *Store }

func (r *ConsultationsRepo) ListForDoctorUser(_ context.Context, userID string) ([]consultation.Consultation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doctorID := ""
	for _, d := range r.s.doctors {
		if d.UserID == userID {
			doctorID = d.ID
			break
		}
	}
	if doctorID == "" {
		return nil, doctor.ErrNotFound
	}

	output := make([]consultation.Consultation, 0)

	for _, c := range r.s.consultations {
		if c.DoctorID != doctorID {
			continue
		}

		p := r.s.withAccount(r.s.patients[c.PatientID])
		c.Patient = consultation.Patient{FullName: p.FullName, Phone: p.Phone, User: p.User}
		output = append(output, c)
	}

	sort.Slice(output, func(i, j int) bool {
		if output[i].ScheduledTime.Equal(output[j].ScheduledTime) {
			return output[i].ID < output[j].ID
		}
		return output[i].ScheduledTime.Before(output[j].ScheduledTime)
	})

	return output, nil
}

func (r *ConsultationsRepo) Create(_ context.Context, doctorID, patientID string, at time.Time) (consultation.Consultation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[doctorID]; !ok {
		return consultation.Consultation{}, doctor.ErrNotFound
	}
	if _, ok := r.s.patients[patientID]; !ok {
		return consultation.Consultation{}, patient.ErrNotFound
	}

	now := r.s.now().UTC()
	c := consultation.Consultation{
		ID:            uuid.NewString(),
		DoctorID:      doctorID,
		PatientID:     patientID,
		ScheduledTime: at.UTC(),
		Status:        consultation.StatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.s.consultations[c.ID] = c

	return c, nil
}

type CategoriesRepo struct{ s *Store }

func (r *CategoriesRepo) List(_ context.Context) ([]category.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	output := make([]category.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		output = append(output, c)
	}

	sort.Slice(output, func(i, j int) bool { return output[i].Name < output[j].Name })
	return output, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))

	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
