package notification

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/nguyentranbao-ct/chat-engine/internal/config"
	"github.com/nguyentranbao-ct/chat-engine/internal/repo/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerNewMessage(t *testing.T) {
	mp := mocks.NewAsyncProducer(t, nil)
	var got *sarama.ProducerMessage
	mp.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		got = msg
		return nil
	})

	n := newProducer("notifications", mp)
	err := n.NewMessage(context.Background(), NewMessage{ToProfileID: "to", FromProfileID: "from", ChatID: "R-1", Preview: "hi"})
	require.NoError(t, err)
	require.NoError(t, n.Close())

	require.NotNil(t, got)
	assert.Equal(t, "notifications", got.Topic)
	key, _ := got.Key.Encode()
	assert.Equal(t, "to", string(key))
	value, _ := got.Value.Encode()
	assert.JSONEq(t, `{"route":"/notifications/new-message","data":{"to_profile_id":"to","from_profile_id":"from","chat_id":"R-1","message_id":"","channel":"","preview":"hi"}}`, string(value))
	assert.Equal(t, []byte(bus.RouteNotifyNewMessage), got.Headers[0].Value)
}

func TestNotifierDisabled(t *testing.T) {
	n, err := NewNotifier(&config.Config{})
	require.NoError(t, err)
	assert.NoError(t, n.Archive(context.Background(), Archive{ProfileID: "a", ChatID: "R-1"}))
	assert.NoError(t, n.Close())
}
