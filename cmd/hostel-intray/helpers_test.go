package main

import (
	"bytes"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/spf13/cobra"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func note(id string, at int) domain.Notification {
	return domain.Notification{
		ID:        id,
		Kind:      domain.KindProblemStatusUpdated,
		Title:     "Complaint " + id,
		Body:      fmt.Sprintf("status of %s", id),
		Related:   domain.RelatedEntity{ID: "p-" + id, Type: domain.EntityProblem},
		CreatedAt: epoch.Add(time.Duration(at) * time.Second),
	}
}

func page(hasMore bool, items ...domain.Notification) api.Page {
	return api.Page{Items: items, HasMore: hasMore, Received: len(items)}
}

// captureColors redirects console helpers for the duration of the test.
func captureColors(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	colors.SetOutput(&out, &errOut)
	t.Cleanup(func() { colors.SetOutput(os.Stdout, os.Stderr) })
	return &out, &errOut
}

// execute runs c with args and returns what it wrote to its own output.
func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	if args == nil {
		args = []string{}
	}
	c.SetArgs(args)
	err := c.Execute()
	return buf.String(), err
}
