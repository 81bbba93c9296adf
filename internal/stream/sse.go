package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sync"
	"time"
)

// sseConn reads text/event-stream events. Each event's data lines form one frame;
// comments and the event, id and retry fields are ignored. An event whose data
// exceeds maxFrameSize is consumed up to its blank line and skipped.
type sseConn struct {
	body   io.ReadCloser
	reader *bufio.Reader
	line   []byte
	cancel context.CancelFunc
	once   sync.Once
}

func dialSSE(ctx context.Context, endpoint string, o options) (transportConn, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header = o.header.Clone()
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The dial timeout covers headers only; the body stays open afterwards.
	var timer *time.Timer
	if o.dialTimeout > 0 {
		timer = time.AfterFunc(o.dialTimeout, cancel)
	}
	resp, err := o.httpClient.Do(req)
	if timer != nil && !timer.Stop() {
		if err == nil {
			resp.Body.Close()
		}
		cancel()
		return nil, fmt.Errorf("connect %s: %w", endpoint, context.DeadlineExceeded)
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect %s: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("connect %s: unexpected status %s", endpoint, resp.Status)
	}
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "text/event-stream" {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("connect %s: %w: content type %q", endpoint, ErrUnsupportedTransport, resp.Header.Get("Content-Type"))
	}

	return &sseConn{body: resp.Body, reader: bufio.NewReader(resp.Body), cancel: cancel}, nil
}

func (c *sseConn) next() ([]byte, error) {
	var data [][]byte
	size := 0
	oversized := false
	for {
		line, tooLong, err := c.readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("read event stream: %w", err)
			}
			if len(data) > 0 || oversized {
				return nil, fmt.Errorf("read event stream: %w", io.ErrUnexpectedEOF)
			}
			return nil, ErrStreamEnded
		}
		if tooLong {
			oversized, data = true, nil
			continue
		}
		if len(line) == 0 {
			if oversized {
				return nil, fmt.Errorf("%w: event data over %d bytes", errFrameTooLarge, maxFrameSize)
			}
			if len(data) == 0 {
				continue
			}
			return bytes.Join(data, []byte("\n")), nil
		}
		if line[0] == ':' || oversized {
			continue
		}
		field, value, _ := bytes.Cut(line, []byte(":"))
		if string(field) != "data" {
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		size += len(value) + 1
		if size > maxFrameSize {
			oversized, data = true, nil
			continue
		}
		data = append(data, append([]byte(nil), value...))
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxFrameSize is consumed in full but not kept; tooLong reports it.
func (c *sseConn) readLine() (line []byte, tooLong bool, err error) {
	c.line = c.line[:0]
	for {
		chunk, err := c.reader.ReadSlice('\n')
		if !tooLong {
			if len(c.line)+len(chunk) > maxFrameSize+2 {
				tooLong = true
				c.line = c.line[:0]
			} else {
				c.line = append(c.line, chunk...)
			}
		}
		switch {
		case err == nil:
			line = bytes.TrimSuffix(c.line, []byte("\n"))
			return bytes.TrimSuffix(line, []byte("\r")), tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && (tooLong || len(c.line) > 0):
			return nil, false, io.ErrUnexpectedEOF
		default:
			return nil, false, err
		}
	}
}

func (c *sseConn) close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		err = c.body.Close()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	})
	return err
}
