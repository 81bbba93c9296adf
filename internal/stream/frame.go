package stream

import (
	"encoding/json"
	"fmt"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
)

// FrameType tags a decoded push frame.
type FrameType int

const (
	// FrameUnrecognized is anything that is neither a control frame nor a valid notification.
	FrameUnrecognized FrameType = iota
	// FrameConnected acknowledges a new subscription.
	FrameConnected
	// FramePing is a keep-alive.
	FramePing
	// FrameNotification carries one notification.
	FrameNotification
)

func (t FrameType) String() string {
	switch t {
	case FrameConnected:
		return "connected"
	case FramePing:
		return "ping"
	case FrameNotification:
		return "notification"
	default:
		return "unrecognized"
	}
}

// Frame is one decoded unit of the push protocol. Notification is set only for
// FrameNotification, Err only for FrameUnrecognized.
type Frame struct {
	Type         FrameType
	Notification domain.Notification
	Err          error
}

// DecodeFrame decodes a single JSON frame. It never fails: anything that is not
// a control frame or a well-formed notification comes back as FrameUnrecognized.
// Pushed notifications are always unread on arrival.
func DecodeFrame(data []byte) Frame {
	var p domain.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Frame{Type: FrameUnrecognized, Err: fmt.Errorf("decode frame: %w", err)}
	}

	switch p.Type {
	case "connected":
		return Frame{Type: FrameConnected}
	case "ping":
		return Frame{Type: FramePing}
	}

	n, err := p.Notification()
	if err != nil {
		return Frame{Type: FrameUnrecognized, Err: err}
	}
	n.Read = false
	n.ReadAt = nil
	return Frame{Type: FrameNotification, Notification: n}
}
