package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadNotification(t *testing.T) {
	raw := `{"id":"n1","type":"FEE_DUE","title":"Hostel fee","message":"Due Friday",
		"relatedEntityId":"f9","relatedEntityType":"Fee","read":true,
		"readAt":"2026-01-02T10:00:00Z","createdAt":"2026-01-01T09:30:00Z"}`

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	n, err := p.Notification()
	require.NoError(t, err)

	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, KindFeeDue, n.Kind)
	assert.Equal(t, "Due Friday", n.Body)
	assert.Equal(t, "/fees/f9", n.Related.Route())
	assert.True(t, n.Read)
	require.NotNil(t, n.ReadAt)
	assert.Equal(t, time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC), n.CreatedAt)
}

func TestPayloadFallsBackToLegacyID(t *testing.T) {
	p := Payload{LegacyID: "64ab", Type: "X", CreatedAt: time.Unix(10, 0)}
	n, err := p.Notification()
	require.NoError(t, err)
	assert.Equal(t, "64ab", n.ID)
	assert.Equal(t, "Notification", n.Kind.Label())
}

func TestPayloadRejectsMissingIdentity(t *testing.T) {
	_, err := Payload{CreatedAt: time.Unix(10, 0)}.Notification()
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = Payload{ID: "a"}.Notification()
	assert.ErrorIs(t, err, ErrMissingCreatedAt)
}

func TestNewPayloadRoundTrip(t *testing.T) {
	n := Notification{
		ID:        "n2",
		Kind:      KindTransitUpdated,
		Title:     "Bus",
		Body:      "Leaves at 8",
		Related:   RelatedEntity{ID: "t1", Type: EntityTransit},
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}
	back, err := NewPayload(n).Notification()
	require.NoError(t, err)
	assert.Equal(t, n, back)
}
