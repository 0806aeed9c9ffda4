package models

import (
	"container/heap"
	"sync"
	"time"
)

const (
	EventSignIn         = "SignIn"
	EventSignOut        = "SignOut"
	EventAddLine        = "AddLine"
	EventUpdateLine     = "UpdateLine"
	EventRemoveLine     = "RemoveLine"
	EventClearCart      = "ClearCart"
	EventSaveFavorite   = "SaveFavorite"
	EventRemoveFavorite = "RemoveFavorite"
	EventCheckout       = "Checkout"
)

// Event is a scheduled action for one simulated device.
type Event struct {
	Time   time.Time
	Type   string
	Device int
	Data   interface{}

	seq uint64
}

// EventQueue orders events by time. Events scheduled for the same instant come out in
// the order they were enqueued, so a seeded run replays identically.
type EventQueue struct {
	events []*Event
	next   uint64
	mutex  sync.Mutex
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time.Equal(h[j].Time) {
		return h[i].seq < h[j].seq
	}
	return h[i].Time.Before(h[j].Time)
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

func NewEventQueue() *EventQueue {
	return &EventQueue{events: make([]*Event, 0)}
}

func (eq *EventQueue) Enqueue(event *Event) {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	event.seq = eq.next
	eq.next++
	heap.Push((*eventHeap)(&eq.events), event)
}

// Dequeue removes and returns the earliest event, or nil when empty.
func (eq *EventQueue) Dequeue() *Event {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	if len(eq.events) == 0 {
		return nil
	}
	return heap.Pop((*eventHeap)(&eq.events)).(*Event)
}

func (eq *EventQueue) Peek() *Event {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	if len(eq.events) == 0 {
		return nil
	}
	return eq.events[0]
}

func (eq *EventQueue) Len() int {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	return len(eq.events)
}
