package sinks

import "context"

// Sink delivers events to a downstream system (webhook, SQS, SNS, Pub/Sub).
type Sink interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
