package api

import (
	"context"

	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of the notification endpoints.
//
// Example usage:
//
//	client := new(MockClient)
//	client.On("FetchPage", mock.Anything, 20, 0).Return(Page{HasMore: false}, nil)
//	client.On("MarkAllRead", mock.Anything).Return(nil).Once()
type MockClient struct {
	mock.Mock
}

// FetchPage returns the mocked page.
func (m *MockClient) FetchPage(ctx context.Context, limit, skip int) (Page, error) {
	args := m.Called(ctx, limit, skip)
	return args.Get(0).(Page), args.Error(1)
}

// UnreadCount returns the mocked unread total.
func (m *MockClient) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MarkAllRead returns the mocked error.
func (m *MockClient) MarkAllRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Publish returns the mocked notification.
func (m *MockClient) Publish(ctx context.Context, in NewNotification) (domain.Notification, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Notification), args.Error(1)
}
