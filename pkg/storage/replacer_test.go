package storage

import "testing"

func TestReplacerEvictsHistoryBeforeCache(t *testing.T) {
	r := NewReplacer(3, 2)

	// Frame 2 is accessed only once: it never reaches k=2 accesses and
	// stays in the history queue forever, regardless of how often its
	// siblings are accessed.
	r.RecordAccess(0)
	r.RecordAccess(1)
	r.RecordAccess(2)
	r.RecordAccess(0)
	r.RecordAccess(1)

	for _, fid := range []int{0, 1, 2} {
		if err := r.SetEvictable(fid, true); err != nil {
			t.Fatalf("SetEvictable(%d): %v", fid, err)
		}
	}

	if got, want := r.Size(), 3; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	victim, ok := r.Evict()
	if !ok {
		t.Fatal("Evict() returned ok=false, want a victim")
	}
	if victim != 2 {
		t.Fatalf("Evict() = %d, want 2 (only frame with < k accesses)", victim)
	}
}

func TestReplacerCacheQueuePicksSmallestKDistance(t *testing.T) {
	r := NewReplacer(2, 2)
	r.RecordAccess(0) // ts1
	r.RecordAccess(1) // ts2
	r.RecordAccess(0) // ts3 -> frame0 distance = ts1
	r.RecordAccess(1) // ts4 -> frame1 distance = ts2
	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	victim, ok := r.Evict()
	if !ok || victim != 0 {
		t.Fatalf("Evict() = (%d, %v), want (0, true)", victim, ok)
	}
}

func TestReplacerSetEvictableAndRemove(t *testing.T) {
	r := NewReplacer(2, 2)
	r.RecordAccess(0)
	if err := r.Remove(0); err != ErrNonEvictableFrame {
		t.Fatalf("Remove of pinned frame = %v, want ErrNonEvictableFrame", err)
	}
	r.SetEvictable(0, true)
	if err := r.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if r.Size() != 0 {
		t.Fatalf("Size() after Remove = %d, want 0", r.Size())
	}
}

func TestReplacerInvalidFrame(t *testing.T) {
	r := NewReplacer(2, 2)
	if err := r.RecordAccess(5); err != ErrInvalidFrame {
		t.Fatalf("RecordAccess(5) = %v, want ErrInvalidFrame", err)
	}
	if err := r.SetEvictable(-1, true); err != ErrInvalidFrame {
		t.Fatalf("SetEvictable(-1) = %v, want ErrInvalidFrame", err)
	}
}

func TestReplacerEvictEmpty(t *testing.T) {
	r := NewReplacer(2, 2)
	if _, ok := r.Evict(); ok {
		t.Fatal("Evict() on empty replacer returned ok=true")
	}
}
