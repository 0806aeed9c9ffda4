// Package replica keeps a client-local collection consistent with one remote per-user
// document. Local state is the source of truth for the UI: mutations apply in memory,
// then to local durable storage, and only then are queued for the remote store.
package replica

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
	"go.uber.org/zap"
)

// ErrNotDurable is returned by Mutate when the change was applied in memory but could
// not be written anywhere durable: the local write failed and no remote mirror is
// active.
var ErrNotDurable = errors.New("change not persisted")

// ReconcileFunc observes first-snapshot decisions.
type ReconcileFunc func(userID string, decision Decision, localLen, remoteLen int)

type Options[T any] struct {
	Collection string
	StorageKey string
	Local      repositories.LocalStore
	Remote     repositories.DocumentStore
	Clone      func(T) T
	// Normalize, when set, is applied to every list read from local or remote storage.
	Normalize   func([]T) []T
	Logger      *zap.Logger
	Now         func() time.Time
	OnReconcile ReconcileFunc
}

type Replica[T any] struct {
	opts Options[T]
	log  *zap.Logger

	mu       sync.Mutex
	items    []T
	state    State
	userID   string
	sub      repositories.Subscription
	epoch    uint64
	localSeq uint64
	ackedSeq uint64
	lastErr  error
	settled  chan struct{}

	// remoteRev is the newest document revision this replica has written or applied.
	// deferred holds a snapshot newer than remoteRev that arrived while a local write
	// was unacknowledged.
	remoteRev   int64
	deferred    []T
	deferredRev int64

	kick chan struct{}
	quit chan struct{}
	done chan struct{}
}

// Open hydrates from local storage and starts the remote writer. Hydration always
// completes before Connect can open a subscription.
func Open[T any](ctx context.Context, opts Options[T]) *Replica[T] {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clone == nil {
		opts.Clone = func(v T) T { return v }
	}
	r := &Replica[T]{
		opts:    opts,
		log:     opts.Logger.With(zap.String("collection", opts.Collection)),
		items:   []T{},
		settled: make(chan struct{}),
		kick:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	r.hydrate(ctx)
	go r.writeLoop()
	return r
}

func (r *Replica[T]) hydrate(ctx context.Context) {
	if r.opts.Local == nil {
		return
	}
	raw, err := r.opts.Local.Get(ctx, r.opts.StorageKey)
	if err != nil {
		r.log.Warn("local hydrate failed", zap.Error(err))
		return
	}
	if raw != nil {
		r.items = r.normalize(decodeList[T](raw))
	}
}

// Items returns a copy of the current collection.
func (r *Replica[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cloneItems(r.items)
}

// View runs fn against the current collection under the lock. fn must not retain or
// modify the slice.
func (r *Replica[T]) View(fn func(items []T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.items)
}

func (r *Replica[T]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Replica[T]) UserID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID
}

// Mutate applies fn to a copy of the collection and commits the result. An error from
// fn leaves the collection untouched. The committed state is persisted locally before
// the remote write is queued.
func (r *Replica[T]) Mutate(fn func(items []T) ([]T, error)) error {
	r.mu.Lock()
	next, err := fn(r.cloneItems(r.items))
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if next == nil {
		next = []T{}
	}
	r.items = next
	r.localSeq++
	localErr := r.persistLocked()
	mirrored := r.state != Unsynced
	if r.state == Synced {
		r.requestPush()
	}
	r.mu.Unlock()

	if localErr != nil && !mirrored {
		return fmt.Errorf("%w: %v", ErrNotDurable, localErr)
	}
	return nil
}

func (r *Replica[T]) persistLocked() error {
	if r.opts.Local == nil {
		return nil
	}
	raw, err := encodeList(r.items)
	if err != nil {
		return err
	}
	if err := r.opts.Local.Set(context.Background(), r.opts.StorageKey, raw); err != nil {
		r.log.Warn("local persist failed", zap.Error(err))
		return err
	}
	return nil
}

func (r *Replica[T]) requestPush() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Connect opens the remote subscription for userID, first tearing down any previous
// one. The collection moves to AwaitingFirstSnapshot until the first delivery.
func (r *Replica[T]) Connect(ctx context.Context, userID string) error {
	if userID == "" {
		r.Disconnect()
		return nil
	}
	if r.opts.Remote == nil {
		return errors.New("no remote document store configured")
	}
	r.Disconnect()

	r.mu.Lock()
	r.epoch++
	epoch := r.epoch
	r.state = AwaitingFirstSnapshot
	r.userID = userID
	r.ackedSeq = r.localSeq
	r.remoteRev = 0
	r.deferred, r.deferredRev = nil, 0
	r.lastErr = nil
	r.signalLocked()
	r.mu.Unlock()

	ref := models.DocumentRef{UserID: userID, Collection: r.opts.Collection}
	sub, err := r.opts.Remote.Subscribe(ctx, ref, func(s repositories.Snapshot) {
		r.onSnapshot(epoch, s)
	})
	if err != nil {
		r.mu.Lock()
		if r.epoch == epoch {
			r.state = Unsynced
			r.userID = ""
			r.signalLocked()
		}
		r.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", ref, err)
	}

	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	r.sub = sub
	r.mu.Unlock()
	r.log.Debug("subscribed", zap.String("user_id", userID))
	return nil
}

// Disconnect closes the subscription and returns to Unsynced. Local content is kept.
func (r *Replica[T]) Disconnect() {
	r.mu.Lock()
	r.epoch++
	sub := r.sub
	r.sub = nil
	wasUser := r.userID
	r.state = Unsynced
	r.userID = ""
	r.deferred, r.deferredRev = nil, 0
	r.signalLocked()
	r.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
		r.log.Debug("unsubscribed", zap.String("user_id", wasUser))
	}
}

func (r *Replica[T]) onSnapshot(epoch uint64, snap repositories.Snapshot) {
	remote := r.normalize(decodeDocument[T](snap.Body))

	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		return
	}

	var reconciled func()
	switch r.state {
	case AwaitingFirstSnapshot:
		r.state = Synced
		r.remoteRev = snap.Revision
		localLen, remoteLen := len(r.items), len(remote)
		decision := Decide(localLen, remoteLen)
		if decision == PushLocal {
			r.localSeq++
			r.requestPush()
		} else {
			r.adoptLocked(remote, snap.Revision)
		}
		userID := r.userID
		if hook := r.opts.OnReconcile; hook != nil {
			reconciled = func() { hook(userID, decision, localLen, remoteLen) }
		}
		r.log.Info("first snapshot reconciled",
			zap.String("user_id", userID),
			zap.Stringer("decision", decision),
			zap.Int("local", localLen),
			zap.Int("remote", remoteLen))
	case Synced:
		switch {
		case r.supersededLocked(snap.Revision):
			// our own echo, or a state a later write already replaced
		case r.ackedSeq < r.localSeq:
			r.deferred, r.deferredRev = remote, snap.Revision
		default:
			r.adoptLocked(remote, snap.Revision)
		}
	}
	r.signalLocked()
	r.mu.Unlock()

	if reconciled != nil {
		reconciled()
	}
}

// supersededLocked reports whether revision rev is already covered by remoteRev.
// Stores that do not number revisions report 0, which is never superseded.
func (r *Replica[T]) supersededLocked(rev int64) bool {
	return rev != 0 && rev <= r.remoteRev
}

func (r *Replica[T]) adoptLocked(remote []T, rev int64) {
	r.items = remote
	r.deferred, r.deferredRev = nil, 0
	r.ackedSeq = r.localSeq
	if rev > r.remoteRev {
		r.remoteRev = rev
	}
	_ = r.persistLocked()
}

func (r *Replica[T]) writeLoop() {
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			return
		case <-r.kick:
		}
		for r.pushOnce() {
		}
	}
}

// pushOnce writes the latest full state if it has not been acknowledged yet. It reports
// whether another push may be needed.
func (r *Replica[T]) pushOnce() bool {
	r.mu.Lock()
	if r.state != Synced || r.ackedSeq >= r.localSeq {
		r.mu.Unlock()
		return false
	}
	items := r.cloneItems(r.items)
	seq, epoch := r.localSeq, r.epoch
	ref := models.DocumentRef{UserID: r.userID, Collection: r.opts.Collection}
	r.mu.Unlock()

	var rev int64
	body, err := encodeDocument(items, r.opts.Now().UTC())
	if err == nil {
		rev, err = r.opts.Remote.Put(context.Background(), ref, body)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		return false
	}
	if seq > r.ackedSeq {
		r.ackedSeq = seq
	}
	r.lastErr = err
	if err != nil {
		// keep the local state rather than reverting to what the remote last held
		r.deferred, r.deferredRev = nil, 0
		r.log.Warn("remote write failed",
			zap.String("user_id", ref.UserID),
			zap.Uint64("seq", seq),
			zap.Error(err))
	} else if rev > r.remoteRev {
		r.remoteRev = rev
	}
	if r.deferred != nil && r.supersededLocked(r.deferredRev) {
		r.deferred, r.deferredRev = nil, 0
	}
	if r.ackedSeq >= r.localSeq && r.deferred != nil {
		r.adoptLocked(r.deferred, r.deferredRev)
	}
	r.signalLocked()
	return r.ackedSeq < r.localSeq
}

func (r *Replica[T]) signalLocked() {
	close(r.settled)
	r.settled = make(chan struct{})
}

// Flush waits until every local change has been acknowledged by the remote store, or
// the collection is not mirrored. It returns the error of the last remote write.
func (r *Replica[T]) Flush(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.state == Unsynced || (r.state == Synced && r.ackedSeq >= r.localSeq) {
			err := r.lastErr
			r.mu.Unlock()
			return err
		}
		ch := r.settled
		r.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close disconnects and stops the writer.
func (r *Replica[T]) Close() {
	r.Disconnect()
	select {
	case <-r.quit:
	default:
		close(r.quit)
	}
	<-r.done
}

func (r *Replica[T]) normalize(items []T) []T {
	if r.opts.Normalize == nil {
		return items
	}
	return r.opts.Normalize(items)
}

func (r *Replica[T]) cloneItems(items []T) []T {
	out := make([]T, len(items))
	for i, v := range items {
		out[i] = r.opts.Clone(v)
	}
	return out
}
