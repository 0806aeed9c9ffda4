package activity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type memOutput struct {
	topics []string
	msgs   [][]byte
	err    error
	closed bool
}

func (m *memOutput) WriteMessage(topic string, msg []byte) error {
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topic)
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *memOutput) Close() error {
	m.closed = true
	return nil
}

func TestRecorder_StampsAndRoutes(t *testing.T) {
	out := &memOutput{}
	r := NewRecorder(out, nil)
	r.now = func() time.Time { return time.Unix(1700000000, 0) }
	phone := r.WithDevice("phone")

	phone.Record(Event{EventType: EventLineAdded, Collection: "cart", ItemID: "burger", Count: 1})
	r.Record(Event{EventType: EventFavoriteSaved, Collection: "favorites", ItemID: "fries"})
	r.Record(Event{EventType: EventOrderPlaced, OrderID: "o1", Timestamp: 42})

	want := []string{TopicCart, TopicFavorites, TopicOrders}
	if strings.Join(out.topics, ",") != strings.Join(want, ",") {
		t.Fatalf("expected topics %v, got %v", want, out.topics)
	}

	var first Event
	if err := json.Unmarshal(out.msgs[0], &first); err != nil {
		t.Fatal(err)
	}
	if first.Timestamp != 1700000000 || first.Device != "phone" {
		t.Fatalf("expected stamped event from phone, got %+v", first)
	}
	var last Event
	if err := json.Unmarshal(out.msgs[2], &last); err != nil {
		t.Fatal(err)
	}
	if last.Timestamp != 42 || last.Device != "" {
		t.Fatalf("explicit timestamp should be kept, got %+v", last)
	}

	if err := phone.Close(); err != nil || !out.closed {
		t.Fatalf("expected the shared output closed, err=%v", err)
	}
}

func TestRecorder_NilAndFailingOutputs(t *testing.T) {
	var nilRecorder *Recorder
	nilRecorder.Record(Event{EventType: EventLineAdded})
	if nilRecorder.WithDevice("x") != nil {
		t.Fatal("expected nil")
	}
	if err := nilRecorder.Close(); err != nil {
		t.Fatal(err)
	}

	// Write failures are swallowed.
	NewRecorder(&memOutput{err: errors.New("broker down")}, nil).Record(Event{EventType: EventLineAdded})
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := NewConsoleOutput(&buf).WriteMessage(TopicCart, []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[cart_events] {\"a\":1}\n" {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}
