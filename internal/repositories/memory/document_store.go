// Package memory holds in-process implementations of the repository interfaces, used
// by the simulator and by tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
)

// PutHook runs before a Put is applied. A non-nil error fails the Put.
type PutHook func(ctx context.Context, ref models.DocumentRef, body []byte) error

// DocumentStore is an in-memory repositories.DocumentStore. Snapshots are delivered
// synchronously, in write order, on the writer's goroutine; Subscribe delivers the
// current document before it returns.
type DocumentStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]json.RawMessage
	revs    map[string]int64
	subs    map[string][]*subscription
	hook    PutHook
	puts    int
	deliver sync.Mutex
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]map[string]json.RawMessage),
		revs: make(map[string]int64),
		subs: make(map[string][]*subscription),
	}
}

type subscription struct {
	store  *DocumentStore
	key    string
	fn     func(repositories.Snapshot)
	mu     sync.Mutex
	closed bool
}

func (s *subscription) Unsubscribe() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.store.remove(s)
}

func (s *subscription) send(snap repositories.Snapshot) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		s.fn(snap)
	}
}

// SetPutHook installs h; nil removes it.
func (d *DocumentStore) SetPutHook(h PutHook) {
	d.mu.Lock()
	d.hook = h
	d.mu.Unlock()
}

// Puts counts the successful writes so far.
func (d *DocumentStore) Puts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.puts
}

func (d *DocumentStore) Put(ctx context.Context, ref models.DocumentRef, body []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return 0, fmt.Errorf("document %s: body must be a JSON object: %w", ref, err)
	}

	d.mu.Lock()
	hook := d.hook
	d.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, ref, body); err != nil {
			return 0, err
		}
	}

	d.deliver.Lock()
	defer d.deliver.Unlock()

	key := ref.String()
	d.mu.Lock()
	doc, ok := d.docs[key]
	if !ok {
		doc = make(map[string]json.RawMessage, len(fields))
		d.docs[key] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
	d.puts++
	d.revs[key]++
	rev := d.revs[key]
	snap, err := snapshotOf(doc, rev)
	subs := append([]*subscription(nil), d.subs[key]...)
	d.mu.Unlock()
	if err != nil {
		return 0, err
	}

	for _, s := range subs {
		s.send(snap)
	}
	return rev, nil
}

func (d *DocumentStore) Get(ctx context.Context, ref models.DocumentRef) (repositories.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return repositories.Snapshot{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	key := ref.String()
	doc, ok := d.docs[key]
	if !ok {
		return repositories.Snapshot{}, nil
	}
	return snapshotOf(doc, d.revs[key])
}

func (d *DocumentStore) Subscribe(ctx context.Context, ref models.DocumentRef, fn func(repositories.Snapshot)) (repositories.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := ref.String()
	sub := &subscription{store: d, key: key, fn: fn}

	d.deliver.Lock()
	defer d.deliver.Unlock()

	d.mu.Lock()
	d.subs[key] = append(d.subs[key], sub)
	var snap repositories.Snapshot
	var err error
	if doc, ok := d.docs[key]; ok {
		snap, err = snapshotOf(doc, d.revs[key])
	}
	d.mu.Unlock()
	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}

	sub.send(snap)
	return sub, nil
}

func (d *DocumentStore) remove(s *subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.subs[s.key]
	for i, other := range list {
		if other == s {
			d.subs[s.key] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(d.subs[s.key]) == 0 {
		delete(d.subs, s.key)
	}
}

func snapshotOf(doc map[string]json.RawMessage, rev int64) (repositories.Snapshot, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return repositories.Snapshot{}, err
	}
	return repositories.Snapshot{Body: body, Exists: true, Revision: rev}, nil
}
