package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/domain/consultation"
	"github.com/geocoder89/medconnect/internal/domain/doctor"
	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type ConsultationReader interface {
	ListForDoctorUser(ctx context.Context, userID string) ([]consultation.Consultation, error)
}

type ConsultationsHandler struct {
	repo    ConsultationReader
	log     *slog.Logger
	timeout time.Duration
}

func NewConsultationsHandler(repo ConsultationReader, log *slog.Logger, timeout time.Duration) *ConsultationsHandler {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ConsultationsHandler{repo: repo, log: log, timeout: timeout}
}

// ListConsultations returns the calling doctor's queue, earliest first.
func (h *ConsultationsHandler) ListConsultations(ctx *gin.Context) {
	userID, ok := requireRole(ctx, user.RoleDoctor)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	list, err := h.repo.ListForDoctorUser(cctx, userID)
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			RespondNotFound(ctx, "Doctor profile not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "list_consultations_failed", "err", err)
		RespondInternal(ctx, "Could not list consultations")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"consultations": list})
}
