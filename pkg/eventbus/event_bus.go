// Package eventbus notifies the host platform that workflow definitions are
// available from the engine.
package eventbus

import (
	"context"
)

// Topic is the topic host consumers subscribe to.
const Topic = "swf"

// WorkflowsAvailableEvent is the event type carried in message metadata.
const WorkflowsAvailableEvent = "workflows_available"

// Metadata keys set on every published message.
const (
	EventTypeMetadataKey = "event_type"
	SourceMetadataKey    = "source"
)

// WorkflowsAvailable is the notification payload. It has no fields and is
// encoded as an empty JSON object.
type WorkflowsAvailable struct{}

// Publisher announces workflow availability.
type Publisher interface {
	PublishAvailable(ctx context.Context) error
	Close() error
}
