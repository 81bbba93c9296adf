package domain

import (
	"fmt"
	"time"
)

// Payload is the JSON shape shared by push frames, page items and the
// reference backend. Push frames omit readAt.
type Payload struct {
	ID                string     `json:"id"`
	LegacyID          string     `json:"_id,omitempty"`
	Type              string     `json:"type"`
	Title             string     `json:"title"`
	Message           string     `json:"message"`
	RelatedEntityID   string     `json:"relatedEntityId,omitempty"`
	RelatedEntityType string     `json:"relatedEntityType,omitempty"`
	Read              bool       `json:"read"`
	ReadAt            *time.Time `json:"readAt"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Notification converts the payload, falling back to _id when id is absent.
// The result is validated for identity and creation time.
func (p Payload) Notification() (Notification, error) {
	id := p.ID
	if id == "" {
		id = p.LegacyID
	}
	n := Notification{
		ID:    id,
		Kind:  Kind(p.Type),
		Title: p.Title,
		Body:  p.Message,
		Related: RelatedEntity{
			ID:   p.RelatedEntityID,
			Type: EntityType(p.RelatedEntityType),
		},
		Read:      p.Read,
		ReadAt:    p.ReadAt,
		CreatedAt: p.CreatedAt,
	}
	if err := n.Validate(); err != nil {
		return Notification{}, fmt.Errorf("decode notification %q: %w", id, err)
	}
	return n, nil
}

// NewPayload is the inverse of Payload.Notification.
func NewPayload(n Notification) Payload {
	return Payload{
		ID:                n.ID,
		Type:              string(n.Kind),
		Title:             n.Title,
		Message:           n.Body,
		RelatedEntityID:   n.Related.ID,
		RelatedEntityType: string(n.Related.Type),
		Read:              n.Read,
		ReadAt:            n.ReadAt,
		CreatedAt:         n.CreatedAt,
	}
}
