package hub

import (
	"errors"
	"testing"
)

type fakeChannel struct {
	frames  [][]byte
	failing bool
	closed  bool
}

func (f *fakeChannel) WriteText(data []byte) error {
	if f.failing {
		return errors.New("broken pipe")
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRegisterAssignsDistinctIDs(t *testing.T) {
	h := New()

	a := h.Register(&fakeChannel{})
	b := h.Register(&fakeChannel{})

	if a == b {
		t.Fatalf("expected distinct client ids, both %q", a)
	}
	if h.Count() != 2 {
		t.Fatalf("expected 2 clients, got %d", h.Count())
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	h := New()
	id := h.Register(&fakeChannel{})

	h.Unregister(id)
	h.Unregister(id)
	h.Unregister("never-registered")

	if h.Count() != 0 {
		t.Fatalf("expected 0 clients, got %d", h.Count())
	}
}

func TestSendToWriteFailureDropsConnection(t *testing.T) {
	h := New()
	ch := &fakeChannel{failing: true}
	id := h.Register(ch)

	if err := h.SendTo(id, map[string]string{"content": "hi"}); err == nil {
		t.Fatal("expected write error")
	}
	if h.Count() != 0 {
		t.Fatalf("failing connection not unregistered, count=%d", h.Count())
	}

	// Sending to an absent client is a no-op
	if err := h.SendTo(id, map[string]string{"content": "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBroadcastPartialFailureIsolation(t *testing.T) {
	h := New()
	good1 := &fakeChannel{}
	bad := &fakeChannel{failing: true}
	good2 := &fakeChannel{}
	h.Register(good1)
	badID := h.Register(bad)
	h.Register(good2)

	h.Broadcast(map[string]string{"content": "hello"})

	if len(good1.frames) != 1 || len(good2.frames) != 1 {
		t.Fatalf("healthy clients missed broadcast: %d, %d", len(good1.frames), len(good2.frames))
	}
	if h.Count() != 2 {
		t.Fatalf("expected only failing client removed, count=%d", h.Count())
	}
	if err := h.SendTo(badID, "x"); err != nil {
		t.Fatalf("removed client should be a no-op, got %v", err)
	}
}
