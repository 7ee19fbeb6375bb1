package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks   map[string]Check
	draining func() bool
}

// NewHealthHandler reports not ready while draining returns true, so load
// balancers stop routing before the listener closes. draining may be nil.
func NewHealthHandler(checks map[string]Check, draining func() bool) *HealthHandler {
	if draining == nil {
		draining = func() bool { return false }
	}
	return &HealthHandler{checks: checks, draining: draining}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings every dependency and answers 503 naming the ones that failed.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.draining() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	failed := make([]string, 0)
	for name, check := range h.checks {
		if err := check(cctx); err != nil {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
