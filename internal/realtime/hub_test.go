package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := uuid.New().String()

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventStudentUpdated, Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventPredictionCreated, Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Event != SSEEventStudentUpdated {
		t.Fatalf("first event: want=%s got=%s", SSEEventStudentUpdated, gotFirst.Event)
	}
	if gotSecond.Event != SSEEventPredictionCreated {
		t.Fatalf("second event: want=%s got=%s", SSEEventPredictionCreated, gotSecond.Event)
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}
	// second close is a no-op
	hub.CloseClient(clientA)

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	reconnect := SSEMessage{Channel: channel, Event: SSEEventStudentDeleted, Data: map[string]any{"seq": 3}}
	hub.Broadcast(reconnect)
	gotReconnect := recvMessage(t, clientB.Outbound, time.Second)
	if gotReconnect.Event != SSEEventStudentDeleted {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventStudentDeleted, gotReconnect.Event)
	}
	hub.CloseClient(clientB)
}

func TestSSEHubRoutesByChannel(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	owner := hub.NewSSEClient(uuid.New())
	admin := hub.NewSSEClient(uuid.New())
	hub.AddChannel(owner, owner.UserID.String())
	hub.AddChannel(admin, AdminChannel)
	defer hub.CloseClient(owner)
	defer hub.CloseClient(admin)

	if got := hub.Subscribers(AdminChannel); got != 1 {
		t.Fatalf("admin subscribers: want=1 got=%d", got)
	}

	hub.Broadcast(SSEMessage{Channel: AdminChannel, Event: SSEEventPredictionCreated})
	recvMessage(t, admin.Outbound, time.Second)
	select {
	case msg := <-owner.Outbound:
		t.Fatalf("owner should not receive admin message, got %+v", msg)
	default:
	}

	hub.RemoveChannel(admin, AdminChannel)
	if got := hub.Subscribers(AdminChannel); got != 0 {
		t.Fatalf("admin subscribers after remove: want=0 got=%d", got)
	}
	hub.Broadcast(SSEMessage{Channel: "", Event: SSEEventPredictionCreated})
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), WithOutboundBuffer(1))
	channel := "c"
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)
	defer hub.CloseClient(client)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventStudentUpdated})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventStudentDeleted})

	got := recvMessage(t, client.Outbound, time.Second)
	if got.Event != SSEEventStudentUpdated {
		t.Fatalf("want first message kept, got %s", got.Event)
	}
	select {
	case msg := <-client.Outbound:
		t.Fatalf("second message should have been dropped, got %+v", msg)
	default:
	}
}

func TestSSEHubServeHTTPStreamsEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), WithHeartbeat(time.Hour))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "stream")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/sse/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	hub.Broadcast(SSEMessage{Channel: "stream", Event: SSEEventPredictionCreated, Data: map[string]any{"student_id": "s1"}})

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.ServeHTTP(rec, req, client)
	}()

	deadline := time.After(2 * time.Second)
	for len(client.Outbound) > 0 {
		select {
		case <-deadline:
			t.Fatalf("message was not consumed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
	hub.CloseClient(client)

	body := rec.Body.String()
	if !strings.Contains(body, "event: PredictionCreated") {
		t.Fatalf("missing event line in body: %q", body)
	}
	if !strings.Contains(body, `"student_id":"s1"`) {
		t.Fatalf("missing payload in body: %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type: %q", got)
	}
}
