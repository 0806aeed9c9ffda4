package replica

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chrisdamba/menusync/internal/localstore"
	"github.com/chrisdamba/menusync/internal/models"
	"github.com/chrisdamba/menusync/internal/repositories"
	"github.com/chrisdamba/menusync/internal/repositories/memory"
)

const testKey = "test:v1"

func openReplica(t *testing.T, local *localstore.MemoryStore, remote *memory.DocumentStore, onReconcile ReconcileFunc) *Replica[string] {
	t.Helper()
	r := Open(context.Background(), Options[string]{
		Collection:  "things",
		StorageKey:  testKey,
		Local:       local,
		Remote:      remote,
		OnReconcile: onReconcile,
	})
	t.Cleanup(r.Close)
	return r
}

func flush(t *testing.T, r *Replica[string]) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.Flush(ctx)
}

func appendItem(v string) func([]string) ([]string, error) {
	return func(items []string) ([]string, error) { return append(items, v), nil }
}

func setLocal(t *testing.T, local *localstore.MemoryStore, body string) {
	t.Helper()
	if err := local.Set(context.Background(), testKey, []byte(body)); err != nil {
		t.Fatal(err)
	}
}

func putRemote(t *testing.T, remote *memory.DocumentStore, uid, body string) {
	t.Helper()
	ref := models.DocumentRef{UserID: uid, Collection: "things"}
	if _, err := remote.Put(context.Background(), ref, []byte(body)); err != nil {
		t.Fatal(err)
	}
}

func remoteItems(t *testing.T, remote *memory.DocumentStore, uid string) []string {
	t.Helper()
	snap, err := remote.Get(context.Background(), models.DocumentRef{UserID: uid, Collection: "things"})
	if err != nil {
		t.Fatal(err)
	}
	return decodeDocument[string](snap.Body)
}

func TestReplica_HydratesFromLocal(t *testing.T) {
	local := localstore.NewMemoryStore()
	setLocal(t, local, `["a","b"]`)
	r := openReplica(t, local, memory.NewDocumentStore(), nil)

	if got := r.Items(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected hydrated items, got %v", got)
	}
	if r.State() != Unsynced {
		t.Fatalf("expected unsynced, got %s", r.State())
	}
}

func TestReplica_FirstSnapshotPushesLargerLocal(t *testing.T) {
	local := localstore.NewMemoryStore()
	setLocal(t, local, `["a","b"]`)
	remote := memory.NewDocumentStore()

	var decision Decision = -1
	r := openReplica(t, local, remote, func(_ string, d Decision, _, _ int) { decision = d })
	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := flush(t, r); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if decision != PushLocal {
		t.Fatalf("expected push_local, got %s", decision)
	}
	if got := remoteItems(t, remote, "u1"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected remote to hold local items, got %v", got)
	}
	if r.State() != Synced {
		t.Fatalf("expected synced, got %s", r.State())
	}
}

func TestReplica_FirstSnapshotAdoptsRemote(t *testing.T) {
	tests := []struct {
		name  string
		local string
	}{
		{name: "remote larger", local: `["a"]`},
		{name: "tie goes to remote", local: `["a","b","c"]`},
		{name: "empty local", local: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := localstore.NewMemoryStore()
			setLocal(t, local, tt.local)
			remote := memory.NewDocumentStore()
			putRemote(t, remote, "u1", `{"items":["x","y","z"]}`)

			r := openReplica(t, local, remote, nil)
			if err := r.Connect(context.Background(), "u1"); err != nil {
				t.Fatalf("connect: %v", err)
			}
			if err := flush(t, r); err != nil {
				t.Fatalf("flush: %v", err)
			}

			want := []string{"x", "y", "z"}
			if got := r.Items(); !reflect.DeepEqual(got, want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
			raw, _ := local.Get(context.Background(), testKey)
			if got := decodeList[string](raw); !reflect.DeepEqual(got, want) {
				t.Fatalf("expected local storage to follow remote, got %v", got)
			}
			if remote.Puts() != 1 {
				t.Fatalf("adopting should not write back, got %d puts", remote.Puts())
			}
		})
	}
}

func TestReplica_MutationsReachRemote(t *testing.T) {
	remote := memory.NewDocumentStore()
	r := openReplica(t, localstore.NewMemoryStore(), remote, nil)
	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"a", "b", "c"} {
		if err := r.Mutate(appendItem(v)); err != nil {
			t.Fatalf("mutate: %v", err)
		}
	}
	if err := flush(t, r); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := remoteItems(t, remote, "u1"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected remote %v", got)
	}
}

func TestReplica_RemoteChangesApply(t *testing.T) {
	remote := memory.NewDocumentStore()
	r := openReplica(t, localstore.NewMemoryStore(), remote, nil)
	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	putRemote(t, remote, "u1", `{"items":["from-other-device"]}`)
	if got := r.Items(); !reflect.DeepEqual(got, []string{"from-other-device"}) {
		t.Fatalf("expected remote change applied, got %v", got)
	}
}

func TestReplica_StaleSnapshotDoesNotRevertPendingWrite(t *testing.T) {
	remote := memory.NewDocumentStore()
	r := openReplica(t, localstore.NewMemoryStore(), remote, nil)
	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	remote.SetPutHook(func(context.Context, models.DocumentRef, []byte) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(entered)
			<-release
		}
		return nil
	})

	if err := r.Mutate(appendItem("a")); err != nil {
		t.Fatal(err)
	}
	<-entered

	// An older state arrives while our write is still in flight.
	putRemote(t, remote, "u1", `{"items":["stale"]}`)
	if got := r.Items(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("pending write was reverted by a stale snapshot: %v", got)
	}

	close(release)
	if err := flush(t, r); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected local write to win, got %v", got)
	}
	if got := remoteItems(t, remote, "u1"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected remote to hold the write, got %v", got)
	}
}

func TestReplica_AccountSwitch(t *testing.T) {
	remote := memory.NewDocumentStore()
	putRemote(t, remote, "u2", `{"items":["x","y"]}`)
	r := openReplica(t, localstore.NewMemoryStore(), remote, nil)

	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Mutate(appendItem("a")); err != nil {
		t.Fatal(err)
	}
	if err := flush(t, r); err != nil {
		t.Fatal(err)
	}

	if err := r.Connect(context.Background(), "u2"); err != nil {
		t.Fatal(err)
	}
	if r.UserID() != "u2" {
		t.Fatalf("expected u2, got %q", r.UserID())
	}
	if got := r.Items(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("expected u2's items, got %v", got)
	}

	// Changes to the previous account's document no longer reach this replica.
	putRemote(t, remote, "u1", `{"items":["late"]}`)
	if got := r.Items(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("previous account leaked into replica: %v", got)
	}
	if got := remoteItems(t, remote, "u2"); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Fatalf("u2's document should be untouched, got %v", got)
	}
}

func TestReplica_DisconnectKeepsLocal(t *testing.T) {
	remote := memory.NewDocumentStore()
	r := openReplica(t, localstore.NewMemoryStore(), remote, nil)
	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Mutate(appendItem("a")); err != nil {
		t.Fatal(err)
	}
	if err := flush(t, r); err != nil {
		t.Fatal(err)
	}
	r.Disconnect()

	if r.State() != Unsynced || r.UserID() != "" {
		t.Fatalf("expected unsynced without user, got %s %q", r.State(), r.UserID())
	}
	if err := r.Mutate(appendItem("b")); err != nil {
		t.Fatal(err)
	}
	if got := remoteItems(t, remote, "u1"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("writes while unsynced must stay local, remote has %v", got)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected local items %v", got)
	}
}

func TestReplica_NotDurable(t *testing.T) {
	local := localstore.NewMemoryStore()
	local.FailWrites = errors.New("disk full")
	remote := memory.NewDocumentStore()
	r := openReplica(t, local, remote, nil)

	err := r.Mutate(appendItem("a"))
	if !errors.Is(err, ErrNotDurable) {
		t.Fatalf("expected ErrNotDurable, got %v", err)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("change should still apply in memory, got %v", got)
	}

	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Mutate(appendItem("b")); err != nil {
		t.Fatalf("a mirrored change is durable remotely, got %v", err)
	}
}

func TestReplica_FailedPushKeepsLocal(t *testing.T) {
	remote := memory.NewDocumentStore()
	r := openReplica(t, localstore.NewMemoryStore(), remote, nil)
	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("unavailable")
	remote.SetPutHook(func(context.Context, models.DocumentRef, []byte) error { return boom })

	if err := r.Mutate(appendItem("a")); err != nil {
		t.Fatal(err)
	}
	if err := flush(t, r); !errors.Is(err, boom) {
		t.Fatalf("expected flush to report %v, got %v", boom, err)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected local state kept, got %v", got)
	}

	remote.SetPutHook(nil)
	if err := r.Mutate(appendItem("b")); err != nil {
		t.Fatal(err)
	}
	if err := flush(t, r); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if got := remoteItems(t, remote, "u1"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected full state pushed after recovery, got %v", got)
	}
}

func TestReplica_MutateErrorLeavesStateUntouched(t *testing.T) {
	r := openReplica(t, localstore.NewMemoryStore(), memory.NewDocumentStore(), nil)
	if err := r.Mutate(appendItem("a")); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("rejected")
	err := r.Mutate(func(items []string) ([]string, error) {
		items[0] = "changed"
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected untouched items, got %v", got)
	}
}

// handStore leaves snapshot delivery to the test. Put waits on release before it
// commits, then runs afterPut before returning.
type handStore struct {
	mu       sync.Mutex
	body     []byte
	rev      int64
	fn       func(repositories.Snapshot)
	entered  chan struct{}
	release  chan struct{}
	afterPut func()
}

func newHandStore() *handStore {
	return &handStore{entered: make(chan struct{}), release: make(chan struct{})}
}

func (s *handStore) Put(_ context.Context, _ models.DocumentRef, body []byte) (int64, error) {
	s.entered <- struct{}{}
	<-s.release
	snap := s.write(string(body))
	if s.afterPut != nil {
		s.afterPut()
	}
	return snap.Revision, nil
}

func (s *handStore) Get(context.Context, models.DocumentRef) (repositories.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repositories.Snapshot{Body: s.body, Exists: s.rev > 0, Revision: s.rev}, nil
}

func (s *handStore) Subscribe(ctx context.Context, ref models.DocumentRef, fn func(repositories.Snapshot)) (repositories.Subscription, error) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
	snap, _ := s.Get(ctx, ref)
	fn(snap)
	return handSub{}, nil
}

// write commits body as the next revision without delivering it.
func (s *handStore) write(body string) repositories.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rev++
	s.body = []byte(body)
	return repositories.Snapshot{Body: s.body, Exists: true, Revision: s.rev}
}

func (s *handStore) deliver(snap repositories.Snapshot) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	fn(snap)
}

type handSub struct{}

func (handSub) Unsubscribe() {}

func openHandReplica(t *testing.T, remote *handStore) *Replica[string] {
	t.Helper()
	r := Open(context.Background(), Options[string]{
		Collection: "things",
		StorageKey: testKey,
		Local:      localstore.NewMemoryStore(),
		Remote:     remote,
	})
	t.Cleanup(r.Close)
	if err := r.Connect(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestReplica_OlderSnapshotDroppedAfterWriteAcknowledged(t *testing.T) {
	remote := newHandStore()
	r := openHandReplica(t, remote)

	if err := r.Mutate(appendItem("mine")); err != nil {
		t.Fatal(err)
	}
	<-remote.entered

	// another device commits first; its snapshot lands while our write is pending
	older := remote.write(`{"items":["other"]}`)
	remote.deliver(older)
	close(remote.release)
	if err := flush(t, r); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []string{"mine"}) {
		t.Fatalf("expected the acknowledged write to stand, got %v", got)
	}

	echo, _ := remote.Get(context.Background(), models.DocumentRef{})
	remote.deliver(echo)
	remote.deliver(older)
	if got := r.Items(); !reflect.DeepEqual(got, []string{"mine"}) {
		t.Fatalf("expected redelivered snapshots to be ignored, got %v", got)
	}
	if got := decodeDocument[string](echo.Body); !reflect.DeepEqual(got, []string{"mine"}) {
		t.Fatalf("expected remote to hold the write, got %v", got)
	}
}

func TestReplica_NewerSnapshotAdoptedAfterWriteAcknowledged(t *testing.T) {
	remote := newHandStore()
	r := openHandReplica(t, remote)
	remote.afterPut = func() {
		// another device writes right after us, before our Put returns
		remote.deliver(remote.write(`{"items":["later"]}`))
	}

	if err := r.Mutate(appendItem("mine")); err != nil {
		t.Fatal(err)
	}
	<-remote.entered
	close(remote.release)
	if err := flush(t, r); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := r.Items(); !reflect.DeepEqual(got, []string{"later"}) {
		t.Fatalf("expected the newer remote state, got %v", got)
	}
}
