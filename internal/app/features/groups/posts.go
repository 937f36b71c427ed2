// internal/app/features/groups/posts.go
package groups

import (
	"context"
	"net/http"

	"github.com/dalemusser/campushub/internal/app/policy/grouppolicy"
	dispatchjobstore "github.com/dalemusser/campushub/internal/app/store/dispatchjobs"
	poststore "github.com/dalemusser/campushub/internal/app/store/posts"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/paging"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

type createPostInput struct {
	Content string `json:"content" validate:"required,max=20000" label:"Content"`
}

type createPostResponse struct {
	Post          models.Post `json:"post"`
	DispatchJobID string      `json:"dispatch_job_id,omitempty"`
}

// HandleCreatePost handles POST /groups/{id}/posts.
//
// Only forum members may post. The post is stored and a dispatch job
// queued; notifications to the other members are written by the dispatch
// worker.
func (h *Handler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
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

	var in createPostInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Content = htmlsanitize.PreparePost(in.Content)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.loadGroup(ctx, w, gid); !ok {
		return
	}
	member, err := grouppolicy.CanPost(ctx, h.DB, r, gid)
	if err != nil {
		h.Log.Error("check membership", zap.Error(err), zap.String("group_id", gid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not create post")
		return
	}
	if !member {
		respond.Error(w, http.StatusForbidden, "only group members can post")
		return
	}

	p, err := poststore.New(h.DB).Create(ctx, models.Post{GroupID: gid, AuthorID: uid, Content: in.Content})
	if err != nil {
		h.Log.Error("create post", zap.Error(err), zap.String("group_id", gid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not create post")
		return
	}

	resp := createPostResponse{Post: p}
	job, err := dispatchjobstore.New(h.DB).EnqueuePost(ctx, gid, uid, p.ID)
	if err != nil {
		h.Log.Error("enqueue post dispatch", zap.Error(err), zap.String("post_id", p.ID.Hex()))
	} else {
		resp.DispatchJobID = job.ID.Hex()
	}
	respond.JSON(w, http.StatusCreated, resp)
}

// ServePosts handles GET /groups/{id}/posts, newest first.
func (h *Handler) ServePosts(w http.ResponseWriter, r *http.Request) {
	gid, ok := inputval.PathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.loadGroup(ctx, w, gid); !ok {
		return
	}
	rows, err := poststore.New(h.DB).ListByGroup(ctx, gid, int64(paging.ParseLimit(r)))
	if err != nil {
		h.Log.Error("list posts", zap.Error(err), zap.String("group_id", gid.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not load posts")
		return
	}
	if rows == nil {
		rows = []models.Post{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"posts": rows})
}
