package localstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/chrisdamba/menusync/internal/models"
)

func TestBoltStore_RoundTripAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	ctx := context.Background()

	store, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if v, err := store.Get(ctx, models.StorageKeyCart); err != nil || v != nil {
		t.Fatalf("expected absent key to be (nil, nil), got (%q, %v)", v, err)
	}
	if err := store.Set(ctx, models.StorageKeyCart, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	v, err := reopened.Get(ctx, models.StorageKeyCart)
	if err != nil {
		t.Fatal(err)
	}
	if string(v) != `[{"id":"a"}]` {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestBoltStore_Errors(t *testing.T) {
	if _, err := OpenBolt("  "); err == nil {
		t.Fatal("expected an error for an empty path")
	}

	store, err := OpenBolt(filepath.Join(t.TempDir(), "local.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.Set(context.Background(), "", []byte("x")); err == nil {
		t.Fatal("expected an error for an empty key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore_FailWrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	store.FailWrites = errors.New("quota exceeded")
	if err := store.Set(ctx, "k", []byte("w")); err == nil {
		t.Fatal("expected the write to fail")
	}
	if v, _ := store.Get(ctx, "k"); string(v) != "v" {
		t.Fatalf("failed write changed the value to %q", v)
	}
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	client := &fakeObjects{objects: make(map[string][]byte)}
	store := NewS3Store(client, "devices", "phone-1")
	ctx := context.Background()

	if v, err := store.Get(ctx, models.StorageKeyFavorites); err != nil || v != nil {
		t.Fatalf("expected a missing object to be (nil, nil), got (%q, %v)", v, err)
	}
	if err := store.Set(ctx, models.StorageKeyFavorites, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if _, ok := client.objects["devices/phone-1/favorites:v1"]; !ok {
		t.Fatalf("expected object under the prefix, have %v", client.objects)
	}
	if v, _ := store.Get(ctx, models.StorageKeyFavorites); string(v) != "[]" {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestOpen(t *testing.T) {
	cfg := &models.Config{LocalStore: models.LocalStoreConfig{Driver: "memory"}}
	store, closeFn, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected a memory store, got %T", store)
	}
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	cfg.LocalStore = models.LocalStoreConfig{Driver: "bolt", Path: filepath.Join(t.TempDir(), "x.db")}
	store, closeFn, err = Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*BoltStore); !ok {
		t.Fatalf("expected a bolt store, got %T", store)
	}
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	cfg.LocalStore.Driver = "floppy"
	if _, closeFn, err = Open(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
	if closeFn == nil {
		t.Fatal("close func should never be nil")
	}
}
