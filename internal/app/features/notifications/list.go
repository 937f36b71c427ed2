// internal/app/features/notifications/list.go
package notifications

import (
	"context"
	"net/http"

	notificationstore "github.com/dalemusser/campushub/internal/app/store/notifications"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/app/system/paging"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	NextCursor    string                `json:"next_cursor,omitempty"`
}

// ServeList handles GET /notifications.
//
// Newest first. ?before=<id> continues from the last id of the previous
// page; ?unread=true restricts to unread entries.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.ActorID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	before, err := paging.ParseCursor(r, "before")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := paging.ParseLimit(r)
	unreadOnly := query.Get(r, "unread") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := notificationstore.New(h.DB).ListByRecipient(ctx, uid, before, unreadOnly, paging.LimitPlusOne(limit))
	if err != nil {
		h.Log.Error("list notifications", zap.Error(err), zap.String("recipient_id", uid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not load notifications")
		return
	}

	resp := listResponse{Notifications: rows}
	if paging.TrimPage(&resp.Notifications, limit) {
		resp.NextCursor = resp.Notifications[len(resp.Notifications)-1].ID.Hex()
	}
	if resp.Notifications == nil {
		resp.Notifications = []models.Notification{}
	}
	respond.JSON(w, http.StatusOK, resp)
}

// ServeUnreadCount handles GET /notifications/unread-count.
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.ActorID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := notificationstore.New(h.DB).CountUnread(ctx, uid)
	if err != nil {
		h.Log.Error("count unread notifications", zap.Error(err), zap.String("recipient_id", uid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not count notifications")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"unread": n})
}
