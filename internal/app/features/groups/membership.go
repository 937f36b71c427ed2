// internal/app/features/groups/membership.go
package groups

import (
	"context"
	"errors"
	"net/http"

	membershipstore "github.com/dalemusser/campushub/internal/app/store/memberships"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleJoin handles POST /groups/{id}/membership.
// Joining twice is a 409.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.ActorID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	gid, ok := inputval.PathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := membershipstore.New(h.DB).Add(ctx, gid, uid, models.GroupTypeForum)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, http.StatusNotFound, "group not found")
		return
	case errors.Is(err, membershipstore.ErrDuplicateMembership):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.Log.Error("join group", zap.Error(err), zap.String("group_id", gid.Hex()), zap.String("user_id", uid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not join group")
		return
	}
	respond.JSON(w, http.StatusCreated, m)
}

// HandleLeave handles DELETE /groups/{id}/membership.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.ActorID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	gid, ok := inputval.PathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := membershipstore.New(h.DB).Remove(ctx, gid, uid)
	if err != nil {
		h.Log.Error("leave group", zap.Error(err), zap.String("group_id", gid.Hex()), zap.String("user_id", uid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not leave group")
		return
	}
	if n == 0 {
		respond.Error(w, http.StatusNotFound, "not a member of this group")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
