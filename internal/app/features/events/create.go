// internal/app/features/events/create.go
package events

import (
	"context"
	"net/http"
	"strings"
	"time"

	dispatchjobstore "github.com/dalemusser/campushub/internal/app/store/dispatchjobs"
	eventstore "github.com/dalemusser/campushub/internal/app/store/events"
	"github.com/dalemusser/campushub/internal/app/system/authz"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.uber.org/zap"
)

type createEventInput struct {
	Name          string     `json:"name" validate:"required,max=200" label:"Event name"`
	Description   string     `json:"description" validate:"max=4000" label:"Description"`
	Collaborators []string   `json:"collaborators" validate:"max=100,dive,objectid" label:"Collaborators"`
	StartsAt      *time.Time `json:"starts_at"`
}

type createEventResponse struct {
	Event         models.Event `json:"event"`
	DispatchJobID string       `json:"dispatch_job_id,omitempty"`
}

// HandleCreate handles POST /events.
//
// The event is stored and a dispatch job queued; participants and
// notifications are written by the dispatch worker. If queueing fails the
// event still exists, so the response is 201 without a job id.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.ActorID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var in createEventInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := eventstore.New(h.DB).Create(ctx, models.Event{
		Name:          in.Name,
		Description:   strings.TrimSpace(in.Description),
		AuthorID:      actor,
		Collaborators: inputval.ObjectIDs(in.Collaborators),
		StartsAt:      in.StartsAt,
	})
	if err != nil {
		h.Log.Error("create event", zap.Error(err), zap.String("author_id", actor.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not create event")
		return
	}

	resp := createEventResponse{Event: ev}
	job, err := dispatchjobstore.New(h.DB).EnqueueEvent(ctx, ev.ID)
	if err != nil {
		h.Log.Error("enqueue event dispatch", zap.Error(err), zap.String("event_id", ev.ID.Hex()))
	} else {
		resp.DispatchJobID = job.ID.Hex()
	}

	h.Log.Info("event created",
		zap.String("event_id", ev.ID.Hex()),
		zap.String("author_id", actor.Hex()),
		zap.Int("collaborators", len(ev.Collaborators)))
	respond.JSON(w, http.StatusCreated, resp)
}
