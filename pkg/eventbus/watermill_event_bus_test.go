package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/pkg/channels/gochannel"
	"github.com/docpipe/docpipe/pkg/eventbus"
	"github.com/docpipe/docpipe/pkg/events"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	received := make(chan *events.ItemRouted, 1)

	err = bus.Handle(events.ItemRoutedEvent, func(ctx context.Context, event any) error {
		routed, ok := event.(*events.ItemRouted)
		require.True(t, ok)
		received <- routed

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	err = bus.Publish(ctx, "pl-1", events.ItemRouted{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.ItemRoutedEvent,
			Timestamp:  time.Now(),
			PipelineID: "pl-1",
		},
		ItemID:  "item-7",
		FromID:  "node-a",
		NextIDs: []string{"node-b"},
		Port:    "ocr",
	})
	require.NoError(t, err)

	select {
	case routed := <-received:
		assert.Equal(t, "item-7", routed.ItemID)
		assert.Equal(t, []string{"node-b"}, routed.NextIDs)
		assert.Equal(t, "ocr", routed.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_DuplicateHandlerRejected(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	handler := func(ctx context.Context, event any) error { return nil }

	require.NoError(t, bus.Handle(events.ItemUnroutedEvent, handler))
	assert.Error(t, bus.Handle(events.ItemUnroutedEvent, handler))
}
