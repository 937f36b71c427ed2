// internal/app/features/events/view.go
package events

import (
	"context"
	"errors"
	"net/http"

	eventstore "github.com/dalemusser/campushub/internal/app/store/events"
	participantstore "github.com/dalemusser/campushub/internal/app/store/participants"
	"github.com/dalemusser/campushub/internal/app/system/inputval"
	"github.com/dalemusser/campushub/internal/app/system/respond"
	"github.com/dalemusser/campushub/internal/app/system/timeouts"
	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type eventView struct {
	models.Event
	ParticipantCount int64 `json:"participant_count"`
}

// ServeEvent handles GET /events/{id}.
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := inputval.PathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, ok := h.loadEvent(ctx, w, id)
	if !ok {
		return
	}
	n, err := participantstore.New(h.DB).CountByEvent(ctx, id)
	if err != nil {
		h.Log.Error("count participants", zap.Error(err), zap.String("event_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not load event")
		return
	}
	respond.JSON(w, http.StatusOK, eventView{Event: ev, ParticipantCount: n})
}

// ServeParticipants handles GET /events/{id}/participants. The list is
// empty until the event's dispatch job has run.
func (h *Handler) ServeParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := inputval.PathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.loadEvent(ctx, w, id); !ok {
		return
	}
	rows, err := participantstore.New(h.DB).ListByEvent(ctx, id)
	if err != nil {
		h.Log.Error("list participants", zap.Error(err), zap.String("event_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not load participants")
		return
	}
	if rows == nil {
		rows = []models.EventParticipant{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"participants": rows})
}

func (h *Handler) loadEvent(ctx context.Context, w http.ResponseWriter, id primitive.ObjectID) (models.Event, bool) {
	ev, err := eventstore.New(h.DB).GetByID(ctx, id)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		respond.Error(w, http.StatusNotFound, "event not found")
		return ev, false
	case err != nil:
		h.Log.Error("load event", zap.Error(err), zap.String("event_id", id.Hex()))
		respond.Error(w, http.StatusInternalServerError, "could not load event")
		return ev, false
	}
	return ev, true
}
