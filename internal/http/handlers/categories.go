package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/domain/category"
	"github.com/gin-gonic/gin"
)

type CategoryReader interface {
	List(ctx context.Context) ([]category.Category, error)
}

type CategoriesHandler struct {
	repo    CategoryReader
	log     *slog.Logger
	timeout time.Duration
}

func NewCategoriesHandler(repo CategoryReader, log *slog.Logger, timeout time.Duration) *CategoriesHandler {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &CategoriesHandler{repo: repo, log: log, timeout: timeout}
}

func (h *CategoriesHandler) ListCategories(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	list, err := h.repo.List(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list_categories_failed", "err", err)
		RespondInternal(ctx, "Could not list categories")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"categories": list})
}
