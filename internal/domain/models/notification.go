// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds and target kinds.
const (
	NotificationTypePost  = "post"
	NotificationTypeEvent = "event"

	TargetTypePost  = "post"
	TargetTypeEvent = "event"
)

// Notification is one inbox entry for one recipient.
//
// Exactly one of PostID / EventID is set, matching TargetType.
// Content is nil when the notification carries no extra message.
type Notification struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SenderID         primitive.ObjectID  `bson:"sender_id" json:"sender_id"`
	RecipientID      primitive.ObjectID  `bson:"recipient_id" json:"recipient_id"`
	Title            string              `bson:"title" json:"title"`
	Content          *string             `bson:"content,omitempty" json:"content,omitempty"`
	IsRead           bool                `bson:"is_read" json:"is_read"`
	NotificationType string              `bson:"notification_type" json:"notification_type"`
	TargetType       string              `bson:"target_type" json:"target_type"`
	PostID           *primitive.ObjectID `bson:"post_id,omitempty" json:"post_id,omitempty"`
	EventID          *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
}
