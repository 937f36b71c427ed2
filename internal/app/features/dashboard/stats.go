// internal/app/features/dashboard/stats.go
package dashboard

import (
	"context"
	"net/http"

	dispatchjobstore "github.com/dalemusser/campushub/internal/app/store/dispatchjobs"
	metricsstore "github.com/dalemusser/campushub/internal/app/store/metrics"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeStats handles GET /dashboard/stats:
//
//	{ "students": 120, "staff": 14, "admins": 3 }
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	_, uname, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	stats, err := metricsstore.FetchUserStats(ctx, h.DB)
	if err != nil {
		h.Log.Error("dashboard stats", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not compute stats")
		return
	}

	h.Log.Debug("dashboard stats served", zap.String("user", uname))
	respond.JSON(w, http.StatusOK, stats)
}

// ServeCounts handles GET /dashboard/counts. Counters that fail to load
// are reported as 0.
func (h *Handler) ServeCounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	respond.JSON(w, http.StatusOK, metricsstore.FetchDashboardCounts(ctx, h.DB))
}

// ServeDispatch handles GET /dashboard/dispatch: dispatch jobs per status.
func (h *Handler) ServeDispatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	counts, err := dispatchjobstore.New(h.DB).CountByStatus(ctx)
	if err != nil {
		h.Log.Error("dispatch status counts", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not load dispatch status")
		return
	}
	respond.JSON(w, http.StatusOK, counts)
}
