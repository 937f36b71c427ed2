// internal/app/features/groups/create.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	groupstore "github.com/dalemusser/campushub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/campushub/internal/app/store/memberships"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/app/system/txn"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

// createGroupInput defines validation rules for creating a group.
type createGroupInput struct {
	Name        string `json:"name" validate:"required,max=200" label:"Name"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
}

// HandleCreate handles POST /groups. The author joins the new group's forum
// in the same transaction.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.ActorID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var in createGroupInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var created models.Group
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		g, err := groupstore.New(h.DB).Create(ctx, models.Group{
			Name:        in.Name,
			Description: in.Description,
			AuthorID:    uid,
		})
		if err != nil {
			return err
		}
		if _, err := membershipstore.New(h.DB).Add(ctx, g.ID, uid, models.GroupTypeForum); err != nil {
			return err
		}
		created = g
		return nil
	})
	switch {
	case errors.Is(err, groupstore.ErrDuplicateGroupName):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.Log.Error("create group", zap.Error(err), zap.String("author_id", uid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not create group")
		return
	}

	h.Log.Info("group created", zap.String("group_id", created.ID.Hex()), zap.String("author_id", uid.Hex()))
	respond.JSON(w, http.StatusCreated, created)
}
