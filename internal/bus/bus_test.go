package bus

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBroadcaster struct {
	groups   []string
	payloads [][]byte
}

func (c *captureBroadcaster) Broadcast(group string, payload []byte) {
	c.groups = append(c.groups, group)
	c.payloads = append(c.payloads, payload)
}

func TestGroupNames(t *testing.T) {
	assert.Equal(t, "chat:5", ChatGroup(5))
	assert.Equal(t, "user:42", UserGroup(42))
}

func TestLocalBusPublishDeliversJSON(t *testing.T) {
	sink := &captureBroadcaster{}
	b := NewLocalBus(sink)

	event := map[string]any{"type": "chat.event", "event": "typing"}
	require.NoError(t, b.Publish(context.Background(), ChatGroup(5), event))

	require.Len(t, sink.groups, 1)
	assert.Equal(t, "chat:5", sink.groups[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(sink.payloads[0], &decoded))
	assert.Equal(t, "typing", decoded["event"])
}

func TestLocalBusPublishMarshalError(t *testing.T) {
	sink := &captureBroadcaster{}
	b := NewLocalBus(sink)

	err := b.Publish(context.Background(), ChatGroup(5), make(chan int))
	require.Error(t, err)
	assert.Empty(t, sink.groups)
}

func TestNewFallsBackWithoutURL(t *testing.T) {
	b := New("", "chat_events", &captureBroadcaster{})
	_, ok := b.(*LocalBus)
	assert.True(t, ok)
}
