// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/swf-backend/pkg/channels/gochannel"
	"github.com/dukex/swf-backend/pkg/channels/kafka"
	"github.com/dukex/swf-backend/pkg/eventbus"
)

const serviceName = "swf-backend"

// NewEventBus creates the event bus for provider.
func NewEventBus(provider string, brokers []string, logger *slog.Logger) (*eventbus.WatermillEventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, brokers, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, serviceName), nil
	case "gochannel", "":
		pub, sub, err := gochannel.CreatePersistentChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, serviceName), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
