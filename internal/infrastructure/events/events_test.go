package events

import (
	"context"
	"encoding/json"
	"errors"
	"listing-repricer/internal/domain/entities"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	name   string
	err    error
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func sampleResult() entities.RepriceResult {
	return entities.RepriceResult{
		ListingID: "42",
		Outcome:   entities.OutcomeUpdated,
		NewPrice:  108.65,
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNotifier_FansOutAndJoinsErrors(t *testing.T) {
	ok := &recordingSink{name: "ok"}
	failing := &recordingSink{name: "broken", err: errors.New("down")}
	notifier := NewNotifier(ok, nil, failing)

	err := notifier.Publish(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	require.Len(t, ok.events, 1)
	require.Len(t, failing.events, 1)
	assert.Equal(t, ok.events[0].ID, failing.events[0].ID, "all sinks receive the same event")
	assert.Equal(t, EventTypeReprice, ok.events[0].Type)
	assert.Equal(t, "42", ok.events[0].Result.ListingID)

	require.NoError(t, notifier.Close())
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
}

func TestNotifier_NoSinks(t *testing.T) {
	assert.NoError(t, NewNotifier().Publish(context.Background(), sampleResult()))
}

func TestNewRepriceEvent(t *testing.T) {
	a := NewRepriceEvent(sampleResult())
	b := NewRepriceEvent(entities.RepriceResult{ListingID: "1"})

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, sampleResult().Timestamp, a.Timestamp)
	assert.False(t, b.Timestamp.IsZero())
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink_Send(t *testing.T) {
	writer := &fakeWriter{}
	sink := newKafkaSinkWithWriter(writer, 0)

	event := NewRepriceEvent(sampleResult())
	require.NoError(t, sink.Send(context.Background(), event))
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, []byte("42"), msg.Key)
	assert.Equal(t, event.Timestamp, msg.Time)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)

	require.NoError(t, sink.Close())
	assert.True(t, writer.closed)
}

func TestKafkaSink_WriteError(t *testing.T) {
	sink := newKafkaSinkWithWriter(&fakeWriter{err: errors.New("no brokers")}, time.Second)
	assert.Error(t, sink.Send(context.Background(), NewRepriceEvent(sampleResult())))
}

func TestHub_BroadcastsToWebSocketClients(t *testing.T) {
	hub := NewHub(4)
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	event := NewRepriceEvent(sampleResult())
	require.NoError(t, hub.Send(context.Background(), event))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, event.ID, received.ID)
	assert.Equal(t, entities.OutcomeUpdated, received.Result.Outcome)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Clients())
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(0)
	server := httptest.NewServer(hub)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
