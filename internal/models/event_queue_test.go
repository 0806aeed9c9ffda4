package models

import (
	"testing"
	"time"
)

func TestEventQueue_TimeOrder(t *testing.T) {
	q := NewEventQueue()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{5, 1, 3, 2, 4} {
		q.Enqueue(&Event{Time: base.Add(time.Duration(offset) * time.Second), Device: offset})
	}
	if q.Len() != 5 || q.Peek().Device != 1 {
		t.Fatalf("unexpected head %+v", q.Peek())
	}
	for want := 1; want <= 5; want++ {
		if ev := q.Dequeue(); ev.Device != want {
			t.Fatalf("expected device %d, got %d", want, ev.Device)
		}
	}
	if q.Dequeue() != nil || q.Peek() != nil {
		t.Fatal("expected an empty queue")
	}
}

func TestEventQueue_SameTimeIsFIFO(t *testing.T) {
	q := NewEventQueue()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for device := 0; device < 8; device++ {
		q.Enqueue(&Event{Time: at, Type: EventSignIn, Device: device})
	}
	q.Enqueue(&Event{Time: at.Add(-time.Second), Type: EventSignOut, Device: 99})
	if ev := q.Dequeue(); ev.Device != 99 {
		t.Fatalf("expected the earlier event first, got %+v", ev)
	}
	for device := 0; device < 8; device++ {
		if ev := q.Dequeue(); ev.Device != device {
			t.Fatalf("expected device %d, got %d", device, ev.Device)
		}
	}
}
