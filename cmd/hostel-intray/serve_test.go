package main

import (
	"context"
	"testing"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/devserver"
	"github.com/stretchr/testify/require"
)

func TestServeStopsWithContext(t *testing.T) {
	captureColors(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeOptions{
			Addr:         "127.0.0.1:0",
			DBPath:       devserver.MemoryPath,
			PingInterval: time.Second,
		})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
