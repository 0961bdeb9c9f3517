package kvstore

import (
	"bytes"
	"testing"
)

func TestGetAbsentIsNotAnError(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %+v", err)
	}
	defer store.Close()

	value, found, err := store.Get([]byte("missing"))
	if err != nil {
		t.Fatalf("Get of a missing key returned an error: %+v", err)
	}
	if found {
		t.Fatalf("Get of a missing key reported found=true")
	}
	if value != nil {
		t.Fatalf("Get of a missing key returned non-nil value %x", value)
	}
}

func TestPutThenGet(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %+v", err)
	}
	defer store.Close()

	key := []byte("k")
	want := []byte("v")
	if err := store.Put(key, want); err != nil {
		t.Fatalf("Put: %+v", err)
	}

	got, found, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get: %+v", err)
	}
	if !found {
		t.Fatalf("Get reported found=false after Put")
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Get returned %x, want %x", got, want)
	}
}

func TestDestroyRemovesData(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %+v", err)
	}
	if err := store.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put: %+v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %+v", err)
	}

	if err := Destroy(dir); err != nil {
		t.Fatalf("Destroy: %+v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen after Destroy: %+v", err)
	}
	defer reopened.Close()

	_, found, err := reopened.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get after Destroy: %+v", err)
	}
	if found {
		t.Fatalf("key survived Destroy")
	}
}
