package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/domain/provider"
	"github.com/gin-gonic/gin"
)

type ProviderReader interface {
	GetByUserID(ctx context.Context, userID string) (provider.Provider, error)
}

type ProvidersHandler struct {
	repo    ProviderReader
	log     *slog.Logger
	timeout time.Duration
}

func NewProvidersHandler(repo ProviderReader, log *slog.Logger, timeout time.Duration) *ProvidersHandler {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ProvidersHandler{repo: repo, log: log, timeout: timeout}
}

func (h *ProvidersHandler) Me(ctx *gin.Context) {
	userID, _, ok := caller(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	p, err := h.repo.GetByUserID(cctx, userID)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			RespondNotFound(ctx, "Profile not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "get_provider_failed", "err", err)
		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"provider": p})
}
