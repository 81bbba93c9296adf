package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func entryAt(id string, ts int64, origin Origin, seq uint64) Entry {
	return Entry{
		Notification: Notification{ID: id, CreatedAt: time.UnixMilli(ts)},
		Origin:       origin,
		Seq:          seq,
	}
}

func TestBefore(t *testing.T) {
	tests := []struct {
		name string
		a, b Entry
		want bool
	}{
		{"newer first", entryAt("a", 20, OriginPage, 1), entryAt("b", 10, OriginLive, 2), true},
		{"older after", entryAt("a", 10, OriginLive, 2), entryAt("b", 20, OriginPage, 1), false},
		{"tie live before page", entryAt("a", 10, OriginLive, 5), entryAt("b", 10, OriginPage, 1), true},
		{"tie page after live", entryAt("a", 10, OriginPage, 1), entryAt("b", 10, OriginLive, 5), false},
		{"tie later live first", entryAt("a", 10, OriginLive, 7), entryAt("b", 10, OriginLive, 3), true},
		{"tie page keeps page order", entryAt("a", 10, OriginPage, 3), entryAt("b", 10, OriginPage, 7), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Before(tt.a, tt.b))
		})
	}
}

func TestOrigin_String(t *testing.T) {
	assert.Equal(t, "live", OriginLive.String())
	assert.Equal(t, "page", OriginPage.String())
	assert.Equal(t, "unknown", Origin(9).String())
}
