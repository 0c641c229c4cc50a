package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsConnections(t *testing.T) {
	m := NewMetrics()

	m.RecordConnection()
	m.RecordConnection()
	m.RecordConnection()
	assert.Equal(t, int64(3), m.TotalConnections)
	assert.Equal(t, int64(3), m.ActiveConnections)
	assert.Equal(t, int64(3), m.MaxConcurrent)

	m.RecordDisconnection(2 * time.Second)
	m.RecordDisconnection(4 * time.Second)
	assert.Equal(t, int64(1), m.ActiveConnections)
	assert.Equal(t, int64(3), m.MaxConcurrent, "max concurrent is sticky")
	assert.Equal(t, 3*time.Second, m.AvgConnectionTime)
}

func TestMetricsMessages(t *testing.T) {
	m := NewMetrics()

	m.RecordMessage("sent", 100, true)
	m.RecordMessage("sent", 300, true)
	m.RecordMessage("received", 50, true)
	m.RecordMessage("received", 20, false)

	assert.Equal(t, int64(2), m.MessagesSent)
	assert.Equal(t, int64(400), m.BytesSent)
	assert.Equal(t, int64(2), m.MessagesReceived)
	assert.Equal(t, int64(70), m.BytesReceived)
	assert.Equal(t, int64(1), m.MessageErrors)
}

func TestMetricsQueueDepth(t *testing.T) {
	m := NewMetrics()

	m.RecordQueueDepth(10)
	assert.Equal(t, int64(10), m.AvgQueueDepth)
	assert.Equal(t, int64(10), m.MaxQueueDepth)

	m.RecordQueueDepth(30)
	assert.Equal(t, int64(12), m.AvgQueueDepth, "moving average weights history 9:1")
	assert.Equal(t, int64(30), m.MaxQueueDepth)
}

func TestMetricsSnapshotAndReset(t *testing.T) {
	m := NewMetrics()
	m.RecordConnection()
	m.RecordMessage("sent", 128, true)
	m.RecordDroppedMessage()

	snapshot := m.GetSnapshot()
	connections, ok := snapshot["connections"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(1), connections["total"])

	messages, ok := snapshot["messages"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(1), messages["sent"])
	assert.Equal(t, int64(128), messages["bytes_sent"])
	assert.Equal(t, int64(1), messages["dropped"])

	m.Reset()
	assert.Equal(t, int64(0), m.TotalConnections)
	assert.Equal(t, int64(0), m.MessagesSent)
	assert.Equal(t, int64(0), m.DroppedMessages)
}

func TestGetMetricsGlobal(t *testing.T) {
	assert.Same(t, GetMetrics(), GetMetrics())
}
