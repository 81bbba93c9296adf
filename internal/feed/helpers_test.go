package feed

import (
	"fmt"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// note builds a notification created `at` seconds after epoch.
func note(id string, at int) domain.Notification {
	return domain.Notification{
		ID:        id,
		Kind:      domain.KindAnnouncementCreated,
		Title:     "Notice " + id,
		Body:      fmt.Sprintf("body of %s", id),
		Related:   domain.RelatedEntity{ID: "a-" + id, Type: domain.EntityAnnouncement},
		CreatedAt: epoch.Add(time.Duration(at) * time.Second),
	}
}

func ids(items []domain.Notification) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}
