package valkey

import (
	"os"
	"testing"
	"time"
)

func TestStoreKeyPrefix(t *testing.T) {
	s := &Store{prefix: DefaultPrefix}
	if got := s.key("limiter:10.0.0.1"); got != "lunchpick:limiter:10.0.0.1" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestStoreEmptyKeyIsNoop(t *testing.T) {
	s := &Store{prefix: DefaultPrefix}
	if b, err := s.Get(""); b != nil || err != nil {
		t.Errorf("expected nil, nil; got %v, %v", b, err)
	}
	if err := s.Set("", []byte("x"), time.Second); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.Delete(""); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// Runs against a live server when LUNCHPICK_TEST_VALKEY_ADDR is set.
func TestStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("LUNCHPICK_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("LUNCHPICK_TEST_VALKEY_ADDR not set")
	}
	s, err := New(addr, "lunchpick-test:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Set("a", []byte("1"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get("a")
	if err != nil || string(got) != "1" {
		t.Fatalf("expected 1, got %q (%v)", got, err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get("a")
	if err != nil || got != nil {
		t.Errorf("expected missing key after reset, got %q (%v)", got, err)
	}
}
