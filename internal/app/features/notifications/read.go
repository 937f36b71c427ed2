// internal/app/features/notifications/read.go
package notifications

import (
	"context"
	"errors"
	"net/http"

	notificationstore "github.com/dalemusser/campushub/internal/app/store/notifications"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleRead handles POST /notifications/{id}/read. Another user's
// notification is reported as not found.
func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.ActorID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, ok := inputval.PathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := notificationstore.New(h.DB).MarkRead(ctx, id, uid)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, http.StatusNotFound, "notification not found")
		return
	case err != nil:
		h.Log.Error("mark notification read", zap.Error(err), zap.String("notification_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not update notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReadAll handles POST /notifications/read-all.
func (h *Handler) HandleReadAll(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.ActorID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := notificationstore.New(h.DB).MarkAllRead(ctx, uid)
	if err != nil {
		h.Log.Error("mark all notifications read", zap.Error(err), zap.String("recipient_id", uid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not update notifications")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"updated": n})
}
