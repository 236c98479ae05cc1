package gochannel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChannel_SharedInstance(t *testing.T) {
	pub, sub, err := CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	assert.Same(t, pub, sub)
}

func TestCreateChannel_ReplayDeliversEarlierEvents(t *testing.T) {
	pub, sub, err := CreateChannel(watermill.NopLogger{}, WithReplay(), WithBuffer(4))
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	require.NoError(t, pub.Publish("voltgraph.events", message.NewMessage("1", []byte(`{"type":"project.created"}`))))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := sub.Subscribe(ctx, "voltgraph.events")
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "1", msg.UUID)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("replayed event was not delivered")
	}
}
