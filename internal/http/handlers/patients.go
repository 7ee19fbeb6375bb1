package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/domain/patient"
	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type PatientReader interface {
	List(ctx context.Context) ([]patient.Patient, error)
	GetByUserID(ctx context.Context, userID string) (patient.Patient, error)
}

type PatientsHandler struct {
	repo    PatientReader
	log     *slog.Logger
	timeout time.Duration
}

func NewPatientsHandler(repo PatientReader, log *slog.Logger, timeout time.Duration) *PatientsHandler {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &PatientsHandler{repo: repo, log: log, timeout: timeout}
}

// ListPatients is restricted to doctors.
func (h *PatientsHandler) ListPatients(ctx *gin.Context) {
	if _, ok := requireRole(ctx, user.RoleDoctor); !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	patients, err := h.repo.List(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list_patients_failed", "err", err)
		RespondInternal(ctx, "Could not list patients")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"patients": patients})
}

// Me returns the caller's own patient profile, 404 when there is none.
func (h *PatientsHandler) Me(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.repo.GetByUserID(cctx, userID)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			RespondNotFound(ctx, "Profile not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "get_patient_failed", "err", err)
		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"patient": p})
}
