package blob

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	fsStore, err := Open(ctx, Config{FSRoot: filepath.Join(t.TempDir(), "blobs")})
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	if fsStore.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver by default, got %s", fsStore.Driver())
	}

	mem, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := mem.(Tamperable); !ok {
		t.Fatalf("expected memory store to be tamperable")
	}

	s3Store, err := Open(ctx, Config{Driver: DriverS3, S3: S3Config{Bucket: "bkt", AccessKeyID: "AKIA", SecretAccessKey: "SECRET"}})
	if err != nil || s3Store.Driver() != DriverS3 {
		t.Fatalf("open s3: %v", err)
	}

	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
	if _, err := Open(ctx, Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestStoresShareSemantics(t *testing.T) {
	ctx := context.Background()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	for _, store := range []Store{NewMemory(), fsStore, NewMockS3ForTests()} {
		info, err := store.Put(ctx, "files/a.txt", bytes.NewReader([]byte("abc")), PutOptions{ContentType: "text/plain"})
		if err != nil {
			t.Fatalf("%s put: %v", store.Driver(), err)
		}
		if info.SHA256 != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
			t.Fatalf("%s digest %s", store.Driver(), info.SHA256)
		}
		if _, err := store.Put(ctx, "files/a.txt", bytes.NewReader([]byte("x")), PutOptions{}); !errors.Is(err, ErrExists) {
			t.Fatalf("%s expected ErrExists, got %v", store.Driver(), err)
		}
		if _, err := store.Head(ctx, "files/missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s expected ErrNotFound, got %v", store.Driver(), err)
		}
		if store.Locator("files/a.txt") == "" {
			t.Fatalf("%s empty locator", store.Driver())
		}
	}
}
