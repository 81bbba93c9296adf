/*
Copyright © 2026 Cristian Oliveira <license@cristianoliveira.dev>
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cristianoliveira/hostel-intray/cmd"
	"github.com/cristianoliveira/hostel-intray/internal/api"
	"github.com/cristianoliveira/hostel-intray/internal/colors"
	"github.com/cristianoliveira/hostel-intray/internal/domain"
	"github.com/spf13/cobra"
)

type publishClient interface {
	Publish(ctx context.Context, in api.NewNotification) (domain.Notification, error)
}

// NewPublishCmd creates the publish command with explicit dependencies.
func NewPublishCmd(client publishClient) *cobra.Command {
	if client == nil {
		panic("NewPublishCmd: client dependency cannot be nil")
	}

	var in api.NewNotification

	publishCmd := &cobra.Command{
		Use:   "publish <title> [message]",
		Short: "Create a notification on the reference backend",
		Long: `Create a notification on the reference backend.

Connected clients receive it immediately over their push stream.

USAGE:
    hostel-intray publish <title> [message] [OPTIONS]

OPTIONS:
    --type <kind>          PROBLEM_CREATED, PROBLEM_STATUS_UPDATED, ANNOUNCEMENT_CREATED,
                           FEE_DUE, TRANSIT_UPDATED, MESS_MENU_UPDATED
    --entity-type <type>   Problem, Announcement, Fee, Transit or Mess
    --entity-id <id>       Related entity id
    -h, --help             Show this help`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			in.Title = args[0]
			if len(args) == 2 {
				in.Message = args[1]
			}
			in.Type = strings.ToUpper(in.Type)
			if !domain.Kind(in.Type).IsKnown() {
				colors.Warning(fmt.Sprintf("unknown notification type %q; clients will show it as generic", in.Type))
			}
			if in.RelatedEntityType != "" && !domain.EntityType(in.RelatedEntityType).IsValid() {
				return fmt.Errorf("publish: unknown entity type %q", in.RelatedEntityType)
			}
			if (in.RelatedEntityType == "") != (in.RelatedEntityID == "") {
				return errors.New("publish: --entity-type and --entity-id go together")
			}

			n, err := client.Publish(c.Context(), in)
			if err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			colors.Success(fmt.Sprintf("Published %s", n.ID))
			return nil
		},
	}

	publishCmd.Flags().StringVar(&in.Type, "type", string(domain.KindAnnouncementCreated), "Notification type")
	publishCmd.Flags().StringVar(&in.RelatedEntityType, "entity-type", "", "Related entity type")
	publishCmd.Flags().StringVar(&in.RelatedEntityID, "entity-id", "", "Related entity id")
	return publishCmd
}

// publishCmd represents the publish command
var publishCmd = NewPublishCmd(apiClient)

func init() {
	cmd.RootCmd.AddCommand(publishCmd)
}
