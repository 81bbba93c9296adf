package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(logging.Noop()), WithRateLimit(0)}, opts...)
	return NewClient(srv.URL+"/", opts...)
}

func TestFetchPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/notifications", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "40", r.URL.Query().Get("skip"))
		assert.Equal(t, "Bearer t0k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"hasMore":true,"notifications":[
			{"id":"a","type":"FEE_DUE","title":"Fee","message":"Pay","read":false,"readAt":null,"createdAt":"2026-02-01T10:00:00Z"},
			{"id":"","type":"FEE_DUE","createdAt":"2026-02-01T09:00:00Z"},
			{"_id":"b","type":"MESS_MENU_UPDATED","read":true,"readAt":"2026-02-01T09:30:00Z","createdAt":"2026-02-01T08:00:00Z"}
		]}`))
	}, WithToken("t0k"))

	page, err := client.FetchPage(context.Background(), 20, 40)
	require.NoError(t, err)

	assert.True(t, page.HasMore)
	assert.Equal(t, 3, page.Received)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID)
	assert.Equal(t, "b", page.Items[1].ID)
	assert.True(t, page.Items[1].Read, "page items keep server read state")
	assert.NotNil(t, page.Items[1].ReadAt)
}

func TestUnsuccessfulEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"session expired"}`))
	})

	_, err := client.FetchPage(context.Background(), 20, 0)
	assert.ErrorIs(t, err, ErrUnsuccessful)
	assert.Contains(t, err.Error(), "session expired")

	_, err = client.UnreadCount(context.Background())
	assert.ErrorIs(t, err, ErrUnsuccessful)

	assert.ErrorIs(t, client.MarkAllRead(context.Background()), ErrUnsuccessful)
}

func TestStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no token", http.StatusUnauthorized)
	})

	_, err := client.UnreadCount(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.True(t, statusErr.Unauthorized())
	assert.Equal(t, "no token", statusErr.Body)
}

func TestUnreadCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/custom/unread", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"count":7}`))
	}, WithPaths(Paths{Unread: "/custom/unread"}))

	n, err := client.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestMarkAllReadAcceptsEmptyBody(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/notifications/mark-all-read", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.MarkAllRead(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestPublish(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in NewNotification
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ANNOUNCEMENT_CREATED", in.Type)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"notification":{"id":"x1","type":"ANNOUNCEMENT_CREATED","title":"Hi","message":"There","createdAt":"2026-02-01T10:00:00Z"}}`))
	})

	n, err := client.Publish(context.Background(), NewNotification{Type: "ANNOUNCEMENT_CREATED", Title: "Hi", Message: "There"})
	require.NoError(t, err)
	assert.Equal(t, "x1", n.ID)
	assert.Equal(t, "There", n.Body)
}

func TestTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, WithTimeout(30*time.Millisecond))

	_, err := client.UnreadCount(context.Background())
	assert.Error(t, err)
}

func TestBaseURLTrimmed(t *testing.T) {
	c := NewClient("https://hostel.example.edu///", WithLogger(logging.Noop()))
	assert.Equal(t, "https://hostel.example.edu", c.BaseURL())
}
