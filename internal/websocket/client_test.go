package websocket

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientWithConnection(t *testing.T) {
	hub := NewHub(testLogger())
	conn := NewMockConnection()

	client := NewClientWithConnection(hub, conn, testLogger())

	require.NotNil(t, client)
	assert.NotEmpty(t, client.id)
	assert.Equal(t, "127.0.0.1:8080", client.remoteAddr)
	assert.NotNil(t, client.send)
	assert.Equal(t, 256, cap(client.send))
	assert.False(t, client.connectedAt.IsZero())
}

func TestClientWritePump(t *testing.T) {
	hub := NewHub(testLogger())
	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, testLogger())

	done := make(chan struct{})
	go func() {
		client.WritePump()
		close(done)
	}()

	client.send <- []byte(`{"type":"run:progress"}`)
	client.send <- []byte(`{"type":"run:complete"}`)

	// Closing the send channel makes the pump write a close frame and stop
	time.Sleep(20 * time.Millisecond)
	close(client.send)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("write pump did not stop")
	}

	written := conn.GetWrittenMessages()
	require.GreaterOrEqual(t, len(written), 3)
	assert.Equal(t, websocket.TextMessage, written[0].Type)
	assert.Equal(t, `{"type":"run:progress"}`, string(written[0].Data))
	assert.Equal(t, websocket.CloseMessage, written[len(written)-1].Type)
}

func TestClientReadPump_UnregistersOnError(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	conn := NewMockConnection()
	conn.AddReadMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`), nil)

	client := NewClientWithConnection(hub, conn, testLogger())
	hub.Register(client)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, hub.ClientCount())

	done := make(chan struct{})
	go func() {
		// Reads the heartbeat, then hits the mock's end-of-messages error
		client.ReadPump()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("read pump did not stop")
	}

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
	assert.True(t, conn.Closed)
	assert.Equal(t, int64(1), client.messagesReceived)
}
