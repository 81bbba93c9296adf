// Package domain provides the domain layer for notifications.
// It contains the notification entity, its value objects and ordering rules.
package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingID is returned when a notification has no identity.
	ErrMissingID = errors.New("notification id cannot be empty")

	// ErrMissingCreatedAt is returned when a notification has no creation time.
	ErrMissingCreatedAt = errors.New("notification createdAt cannot be empty")
)

// Notification represents one delivered event.
type Notification struct {
	ID        string
	Kind      Kind
	Title     string
	Body      string
	Related   RelatedEntity
	Read      bool
	ReadAt    *time.Time
	CreatedAt time.Time
}

// Kind tags what happened. The set is open: values the client does not know
// are kept verbatim and rendered generically.
type Kind string

const (
	KindProblemCreated       Kind = "PROBLEM_CREATED"
	KindProblemStatusUpdated Kind = "PROBLEM_STATUS_UPDATED"
	KindAnnouncementCreated  Kind = "ANNOUNCEMENT_CREATED"
	KindFeeDue               Kind = "FEE_DUE"
	KindTransitUpdated       Kind = "TRANSIT_UPDATED"
	KindMessMenuUpdated      Kind = "MESS_MENU_UPDATED"
)

var kindLabels = map[Kind]string{
	KindProblemCreated:       "New complaint",
	KindProblemStatusUpdated: "Complaint updated",
	KindAnnouncementCreated:  "Announcement",
	KindFeeDue:               "Fee due",
	KindTransitUpdated:       "Transit update",
	KindMessMenuUpdated:      "Mess menu",
}

// IsKnown reports whether the kind is one this client has a label for.
func (k Kind) IsKnown() bool {
	_, ok := kindLabels[k]
	return ok
}

// Label returns a human label for the kind, or a generic one for unknown kinds.
func (k Kind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return "Notification"
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// EntityType identifies what a notification points at.
type EntityType string

const (
	EntityProblem      EntityType = "Problem"
	EntityAnnouncement EntityType = "Announcement"
	EntityFee          EntityType = "Fee"
	EntityTransit      EntityType = "Transit"
	EntityMess         EntityType = "Mess"
)

var entityRoutes = map[EntityType]string{
	EntityProblem:      "/problems/",
	EntityAnnouncement: "/announcements/",
	EntityFee:          "/fees/",
	EntityTransit:      "/transit/",
	EntityMess:         "/mess/",
}

// IsValid checks if the entity type is one of the known types.
func (e EntityType) IsValid() bool {
	_, ok := entityRoutes[e]
	return ok
}

// String returns the string representation of the entity type.
func (e EntityType) String() string {
	return string(e)
}

// RelatedEntity is the downstream navigation target of a notification.
// It is carried as-is and never validated.
type RelatedEntity struct {
	ID   string
	Type EntityType
}

// Route returns the navigation path for the entity, or "" when there is nowhere to go.
func (r RelatedEntity) Route() string {
	prefix, ok := entityRoutes[r.Type]
	if !ok || r.ID == "" {
		return ""
	}
	return prefix + r.ID
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool {
	return n.Read
}

// MarkRead flips the notification to read and stamps ReadAt.
// It returns false when the notification was already read.
func (n *Notification) MarkRead(at time.Time) bool {
	if n.Read {
		return false
	}
	n.Read = true
	readAt := at
	n.ReadAt = &readAt
	return true
}

// Validate checks the fields the feed relies on for identity and ordering.
func (n *Notification) Validate() error {
	if n.ID == "" {
		return ErrMissingID
	}
	if n.CreatedAt.IsZero() {
		return fmt.Errorf("notification %s: %w", n.ID, ErrMissingCreatedAt)
	}
	return nil
}
