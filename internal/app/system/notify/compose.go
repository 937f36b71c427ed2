package notify

import (
	"time"

	"github.com/dalemusser/campushub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoOrganizerContent is the extra message sent to an event's collaborators.
const CoOrganizerContent = "You have been selected as co-organizer"

// EventTitle is the title of an event notification.
func EventTitle(eventName string) string {
	return "A new event has been created: " + eventName
}

// PostTitle is the title of a post notification.
func PostTitle(groupName string, actor models.User) string {
	return "New post in " + groupName + " by " + actor.DisplayName()
}

// CollaboratorSet is the set of co-organizers of one event.
type CollaboratorSet map[primitive.ObjectID]struct{}

func NewCollaboratorSet(ids []primitive.ObjectID) CollaboratorSet {
	set := make(CollaboratorSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is a co-organizer.
func (s CollaboratorSet) Contains(id primitive.ObjectID) bool {
	_, ok := s[id]
	return ok
}

// ComposeEvent builds the notification for one event recipient.
// coOrganizer selects the distinguished content. The caller guarantees
// recipientID is not the event author.
func ComposeEvent(ev models.Event, recipientID primitive.ObjectID, coOrganizer bool, now time.Time) models.Notification {
	eventID := ev.ID
	n := models.Notification{
		SenderID:         ev.AuthorID,
		RecipientID:      recipientID,
		Title:            EventTitle(ev.Name),
		IsRead:           false,
		NotificationType: models.NotificationTypeEvent,
		TargetType:       models.TargetTypeEvent,
		EventID:          &eventID,
		CreatedAt:        now,
	}
	if coOrganizer {
		content := CoOrganizerContent
		n.Content = &content
	}
	return n
}

// ComposePost builds the notification for one member of the group a post
// was published in. The caller guarantees recipientID is not the actor.
func ComposePost(group models.Group, actor models.User, postID, recipientID primitive.ObjectID, now time.Time) models.Notification {
	return models.Notification{
		SenderID:         actor.ID,
		RecipientID:      recipientID,
		Title:            PostTitle(group.Name, actor),
		IsRead:           false,
		NotificationType: models.NotificationTypePost,
		TargetType:       models.TargetTypePost,
		PostID:           &postID,
		CreatedAt:        now,
	}
}
