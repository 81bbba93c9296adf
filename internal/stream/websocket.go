package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn reads one frame per text message. A message over maxFrameSize is
// drained and skipped; the socket stays open.
type wsConn struct {
	conn *websocket.Conn
	once sync.Once
}

func dialWebSocket(ctx context.Context, endpoint string, o options) (transportConn, error) {
	dialer := *websocket.DefaultDialer
	dialCtx := ctx
	if o.dialTimeout > 0 {
		dialer.HandshakeTimeout = o.dialTimeout
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, o.dialTimeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(dialCtx, toWebSocketScheme(endpoint), o.header.Clone())
	if err != nil {
		if resp != nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusSwitchingProtocols {
				return nil, fmt.Errorf("connect %s: unexpected status %s: %w", endpoint, resp.Status, err)
			}
		}
		return nil, fmt.Errorf("connect %s: %w", endpoint, err)
	}
	c := &wsConn{conn: conn}
	// Unblock the reader when the parent context ends.
	go func() {
		<-ctx.Done()
		_ = c.close()
	}()
	return c, nil
}

func (c *wsConn) next() ([]byte, error) {
	for {
		kind, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrStreamEnded
			}
			return nil, fmt.Errorf("read websocket: %w", err)
		}
		if kind != websocket.TextMessage {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return nil, fmt.Errorf("read websocket: %w", err)
			}
			continue
		}
		data, err := io.ReadAll(io.LimitReader(r, maxFrameSize+1))
		if err != nil {
			return nil, fmt.Errorf("read websocket: %w", err)
		}
		if len(data) > maxFrameSize {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return nil, fmt.Errorf("read websocket: %w", err)
			}
			return nil, fmt.Errorf("%w: message over %d bytes", errFrameTooLarge, maxFrameSize)
		}
		return data, nil
	}
}

func (c *wsConn) close() error {
	var err error
	c.once.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = c.conn.Close()
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
	})
	return err
}
