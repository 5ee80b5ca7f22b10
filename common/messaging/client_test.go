package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPublish(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), "notification-added:7")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.ServiceName = "event-api-test"
	client := NewClientWithPublisher(pubSub, cfg)

	require.NoError(t, client.Publish(context.Background(), "notification-added:7", []byte(`{"id":1}`)))

	select {
	case msg := <-messages:
		assert.Equal(t, `{"id":1}`, string(msg.Payload))
		assert.Equal(t, "notification-added:7", msg.Metadata.Get("topic"))
		assert.Equal(t, "event-api-test", msg.Metadata.Get("source_service"))
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestWatermillLoggerWith(t *testing.T) {
	logger := newWatermillLogger("svc").With(watermill.LogFields{"topic": "a"})
	l, ok := logger.(*watermillLogger)
	require.True(t, ok)
	assert.Equal(t, "a", l.fields["topic"])
	assert.Len(t, l.logFields(watermill.LogFields{"k": 1}), 3)
}
