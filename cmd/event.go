package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/practice-gateway/internal/core/events"
	"github.com/frahmantamala/practice-gateway/internal/process"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish domain events through the bus to exercise the notification feed and the usage tracker.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a domain event",
	Long: `Publish a domain event for a tenant. Notifiable types end up in the tenant's notification feed:
  ` + strings.Join(events.NotifiableTypes, "\n  "),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishEvent(args[0])
	},
}

var (
	eventTenant  string
	eventSubject string
	eventData    string
)

const cliActor = "cli"

func buildEvent(eventType string) events.Event {
	switch {
	case strings.HasPrefix(eventType, "process."):
		return events.NewProcessEvent(eventType, eventTenant, cliActor, "", eventSubject, true)
	case strings.HasPrefix(eventType, "user."):
		return events.NewUserEvent(eventType, eventTenant, cliActor, "", eventSubject, true)
	case eventType == events.EventTypeUsageLimitReached:
		return events.NewUsageLimitReachedEvent(eventTenant, eventSubject, 0, 0)
	}
	return events.New(eventType, eventTenant, cliActor, map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})
}

func publishEvent(eventType string) {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	logger := deps.Logger

	evt := buildEvent(eventType)
	logger.Info("publishing event", "event_type", eventType, "event_id", evt.EventID(), "tenant_id", eventTenant)

	ctx := context.Background()
	if err := deps.Bus.Publish(ctx, evt); err != nil {
		logger.Error("failed to publish event", "error", err)
		_ = deps.Close()
		os.Exit(1)
	}
	deps.Bus.Wait()

	feed, err := deps.Notifications.List(ctx, eventTenant)
	if err == nil {
		logger.Info("event published", "unread_notifications", feed.UnreadCount)
	}
	if err := deps.Close(); err != nil {
		logger.Error("storage close error", "error", err)
	}
}

func init() {
	publishEventCmd.Flags().StringVar(&eventTenant, "tenant", process.DemoTenantID, "Tenant the event belongs to")
	publishEventCmd.Flags().StringVar(&eventSubject, "subject", "", "Process number, member name or usage metric, depending on the event type")
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Message for event types without a dedicated payload")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
