package sinks

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubSinkPublishes(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	defer os.Unsetenv("PUBSUB_EMULATOR_HOST")
	os.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	sinkRaw, err := newPubSubSink(ctx, SinkConfig{
		ID:   "gcp",
		Type: TypePubSub,
		PubSub: &PubSubSinkConfig{
			ProjectID: "test-project",
			Topic:     "evals",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubSink: %v", err)
	}
	sink := sinkRaw.(*pubsubSink)
	defer sink.client.Close()

	if _, err := sink.client.CreateTopic(ctx, "evals"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	if err := sink.Publish(ctx, Event{SuiteID: "s1", Passed: 3, Total: 3, Score: 1}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}
