package websocket

import (
	"testing"
	"time"

	"github.com/repo-analyzer/analyzer-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, jobID string) *Client {
	return &Client{
		hub:   hub,
		send:  make(chan *Message, 4),
		jobID: jobID,
	}
}

func receiveMessage(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHub_SendJobUpdateReachesAllWatchers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	watcher1 := newTestClient(hub, "abc-123")
	watcher2 := newTestClient(hub, "abc-123")
	other := newTestClient(hub, "other-job")

	hub.register <- watcher1
	hub.register <- watcher2
	hub.register <- other

	hub.SendJobUpdate("abc-123", &models.JobSnapshot{
		JobID: "abc-123",
		State: models.PollStateTerminal,
		Result: &models.JobResult{
			Status:  "completed",
			Payload: map[string]interface{}{"status": "completed", "score": 42},
		},
	})

	for _, watcher := range []*Client{watcher1, watcher2} {
		msg := receiveMessage(t, watcher)
		require.Equal(t, "job_status", msg.Type)

		payload, ok := msg.Payload.(JobStatusMessage)
		require.True(t, ok)
		assert.Equal(t, "abc-123", payload.JobID)
		assert.Equal(t, models.PollStateTerminal, payload.State)
		assert.Equal(t, "completed", payload.Result.Status)
	}

	// 다른 작업 구독자는 받지 않음
	select {
	case msg := <-other.send:
		t.Fatalf("unexpected message for other job: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	watcher := newTestClient(hub, "abc-123")
	hub.register <- watcher
	hub.unregister <- watcher

	select {
	case _, open := <-watcher.send:
		assert.False(t, open, "send channel should be closed after unregister")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}
