// internal/app/features/groups/view.go
package groups

import (
	"context"
	"errors"
	"net/http"

	groupstore "github.com/dalemusser/campushub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/campushub/internal/app/store/memberships"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/paging"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type groupView struct {
	models.Group
	MemberCount int64 `json:"member_count"`
	IsMember    bool  `json:"is_member"`
}

// ServeList handles GET /groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := groupstore.New(h.DB).List(ctx, int64(paging.ParseLimit(r)))
	if err != nil {
		h.Log.Error("list groups", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not load groups")
		return
	}
	if rows == nil {
		rows = []models.Group{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"groups": rows})
}

// ServeGroup handles GET /groups/{id}.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	uid, _ := authz.ActorID(r)
	gid, ok := inputval.PathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, gid)
	if !ok {
		return
	}

	members := membershipstore.New(h.DB)
	view := groupView{Group: g}
	var err error
	if view.MemberCount, err = members.CountByGroup(ctx, gid, models.GroupTypeForum); err != nil {
		h.Log.Error("count group members", zap.Error(err), zap.String("group_id", gid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not load group")
		return
	}
	if view.IsMember, err = members.Exists(ctx, gid, uid, models.GroupTypeForum); err != nil {
		h.Log.Error("check membership", zap.Error(err), zap.String("group_id", gid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not load group")
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

// loadGroup writes 404/500 itself and reports whether the caller may go on.
func (h *Handler) loadGroup(ctx context.Context, w http.ResponseWriter, id primitive.ObjectID) (models.Group, bool) {
	g, err := groupstore.New(h.DB).GetByID(ctx, id)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, http.StatusNotFound, "group not found")
		return g, false
	case err != nil:
		h.Log.Error("load group", zap.Error(err), zap.String("group_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not load group")
		return g, false
	}
	return g, true
}
