package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/osfio/osfsearch/internal/db"
)

func TestJSONRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.JSONSet(ctx, "osf:node:a", "$", []byte(`{"id":"a"}`)); err != nil {
		t.Fatalf("JSONSet: %v", err)
	}
	got, err := s.JSONGet(ctx, "osf:node:a", ".")
	if err != nil {
		t.Fatalf("JSONGet: %v", err)
	}
	if string(got) != `{"id":"a"}` {
		t.Errorf("JSONGet = %s", got)
	}
	if _, err := s.JSONGet(ctx, "osf:node:b"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("missing key err = %v", err)
	}
	if err := s.JSONSet(ctx, "k", "$.title", []byte(`"x"`)); err == nil {
		t.Error("expected error for sub-path")
	}

	docs, err := s.JSONMGet(ctx, []string{"osf:node:a", "osf:node:b"}, ".")
	if err != nil {
		t.Fatalf("JSONMGet: %v", err)
	}
	if string(docs[0]) != `{"id":"a"}` || docs[1] != nil {
		t.Errorf("JSONMGet = %q", docs)
	}
}

func TestScan(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, k := range []string{"osf:node:b", "osf:node:a", "osf:user:u1"} {
		_ = s.Set(ctx, k, []byte("{}"))
	}
	keys, err := s.Scan(ctx, "osf:node:*")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"osf:node:a", "osf:node:b"}) {
		t.Errorf("Scan = %v", keys)
	}
}

func TestSetNXAndExpiry(t *testing.T) {
	s := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := s.SetNX(ctx, "lock", []byte("a"), time.Minute)
	if !ok {
		t.Fatal("first SetNX should succeed")
	}
	ok, _ = s.SetNX(ctx, "lock", []byte("b"), time.Minute)
	if ok {
		t.Fatal("second SetNX should fail while the key is live")
	}

	now = now.Add(2 * time.Minute)
	if exists, _ := s.Exists(ctx, "lock"); exists {
		t.Error("key should have expired")
	}
	ok, _ = s.SetNX(ctx, "lock", []byte("c"), time.Minute)
	if !ok {
		t.Error("SetNX should succeed after expiry")
	}
	if v, _ := s.Get(ctx, "lock"); string(v) != "c" {
		t.Errorf("Get = %s", v)
	}

	_ = s.Del(ctx, "lock")
	if _, err := s.Get(ctx, "lock"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("after Del err = %v", err)
	}
}
