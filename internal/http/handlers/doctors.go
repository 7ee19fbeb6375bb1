package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/medconnect/internal/cache"
	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/domain/doctor"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/gin-gonic/gin"
)

type DoctorReader interface {
	List(ctx context.Context, filter doctor.ListFilter) ([]doctor.Doctor, error)
	GetByID(ctx context.Context, id string) (doctor.Doctor, error)
}

const doctorsCachePrefix = "doctors:"

type DoctorsHandler struct {
	repo    DoctorReader
	cache   cache.Store
	prom    *observability.Prom
	log     *slog.Logger
	timeout time.Duration
}

// NewDoctorsHandler serves listings from store when it is non-nil.
func NewDoctorsHandler(repo DoctorReader, store cache.Store, prom *observability.Prom, log *slog.Logger, timeout time.Duration) *DoctorsHandler {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DoctorsHandler{repo: repo, cache: store, prom: prom, log: log, timeout: timeout}
}

func listCacheKey(filter doctor.ListFilter) string {
	if filter.Category == nil {
		return doctorsCachePrefix + "all"
	}
	return doctorsCachePrefix + "category:" + *filter.Category
}

func (h *DoctorsHandler) ListDoctors(ctx *gin.Context) {
	var filter doctor.ListFilter

	if c := strings.TrimSpace(ctx.Query("category")); c != "" {
		filter.Category = &c
	}

	key := listCacheKey(filter)

	if h.cache != nil {
		body, ok, err := h.cache.Get(ctx.Request.Context(), key)
		switch {
		case err != nil:
			h.prom.CacheLookup("doctors", "error")
			h.log.WarnContext(ctx.Request.Context(), "cache_get_failed", "key", key, "err", err)
		case ok:
			h.prom.CacheLookup("doctors", "hit")
			RespondRawJSONWithETag(ctx, http.StatusOK, body)
			return
		default:
			h.prom.CacheLookup("doctors", "miss")
		}
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	doctors, err := h.repo.List(cctx, filter)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list_doctors_failed", "err", err)
		RespondInternal(ctx, "Could not list doctors")
		return
	}

	body, err := json.Marshal(gin.H{"doctors": doctors})
	if err != nil {
		RespondInternal(ctx, "Could not list doctors")
		return
	}

	// an empty filtered listing may name a category that does not exist;
	// caching it would let arbitrary query values grow the cache
	if h.cache != nil && (filter.Category == nil || len(doctors) > 0) {
		if err := h.cache.Set(ctx.Request.Context(), key, body); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "cache_set_failed", "key", key, "err", err)
		}
	}

	RespondRawJSONWithETag(ctx, http.StatusOK, body)
}

func (h *DoctorsHandler) GetDoctorByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	d, err := h.repo.GetByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, doctor.ErrNotFound) {
			RespondNotFound(ctx, "Doctor not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "get_doctor_failed", "err", err)
		RespondInternal(ctx, "Could not fetch doctor")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"doctor": d})
}

func (h *DoctorsHandler) InvalidateListings(ctx context.Context) error {
	if h.cache == nil {
		return nil
	}
	return h.cache.DeletePrefix(ctx, doctorsCachePrefix)
}
