package index

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/railhub/ticketdb/pkg/storage"
)

func newTestTree(t *testing.T, leafMax, internalMax int) *BTree[int64, int64] {
	t.Helper()
	dm, err := storage.NewDiskManager(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("NewDiskManager: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	bpm := storage.NewBufferPool(16, dm, 2)
	header := bpm.NewPage()

	cmp := func(a, b int64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	tr, err := Open[int64, int64]("test", header, bpm, cmp, cmp, Int64Codec{}, Int64Codec{}, leafMax, internalMax)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return tr
}

func TestBTreeInsertGetValue(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	if !tr.Insert(10, 100) {
		t.Fatal("Insert(10) = false, want true")
	}
	if tr.Insert(10, 999) {
		t.Fatal("Insert(10) duplicate = true, want false")
	}

	var out []int64
	if !tr.GetValue(10, &out) {
		t.Fatal("GetValue(10) = false, want true")
	}
	if len(out) != 1 || out[0] != 100 {
		t.Fatalf("GetValue(10) = %v, want [100]", out)
	}

	var missing []int64
	if tr.GetValue(11, &missing) {
		t.Fatal("GetValue(11) = true, want false")
	}
}

func TestBTreeInsertCausesSplitsAndStaysSorted(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	keys := []int64{5, 3, 8, 1, 9, 2, 7, 4, 6, 12, 11, 10, 20, 19, 18, 17, 16, 15, 14, 13}
	for _, k := range keys {
		if !tr.Insert(k, k*10) {
			t.Fatalf("Insert(%d) = false, want true", k)
		}
	}
	if tr.IsEmpty() {
		t.Fatal("IsEmpty() = true after inserts")
	}
	sorted := append([]int64(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, k := range sorted {
		var out []int64
		if !tr.GetValue(k, &out) {
			t.Fatalf("GetValue(%d) = false after bulk insert", k)
		}
		if out[0] != k*10 {
			t.Fatalf("GetValue(%d) = %d, want %d", k, out[0], k*10)
		}
	}
}

func TestBTreeRemoveTriggersMergeAndShrinksRoot(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	keys := []int64{1, 2, 3, 4, 5, 6, 7, 8}
	for _, k := range keys {
		tr.Insert(k, k)
	}
	for _, k := range []int64{8, 7, 6, 5, 4, 3} {
		tr.Remove(k)
	}
	rg := tr.bpm.ReadPage(tr.RootPageID())
	rootIsLeaf := isLeafPage(rg.Data())
	rg.Drop()
	if !rootIsLeaf {
		t.Fatal("root is still an internal page after the merges, want a single leaf root")
	}
	for _, k := range []int64{1, 2} {
		var out []int64
		if !tr.GetValue(k, &out) {
			t.Fatalf("GetValue(%d) = false, want true after partial removal", k)
		}
	}
	for _, k := range []int64{3, 4, 5, 6, 7, 8} {
		var out []int64
		if tr.GetValue(k, &out) {
			t.Fatalf("GetValue(%d) = true, want false after removal", k)
		}
	}
}

func TestBTreeRemoveAllEmptiesTree(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	keys := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	for _, k := range keys {
		tr.Insert(k, k)
	}
	for _, k := range keys {
		tr.Remove(k)
	}
	if !tr.IsEmpty() {
		t.Fatal("IsEmpty() = false, want true after removing every key")
	}
	tr.Remove(1) // no-op, must not panic
}

func TestBTreeRemoveMissingKeyIsNoOp(t *testing.T) {
	tr := newTestTree(t, 4, 4)
	tr.Insert(1, 1)
	tr.Remove(42)
	var out []int64
	if !tr.GetValue(1, &out) {
		t.Fatal("GetValue(1) = false after removing an absent key")
	}
}

func TestBTreeEqualPrefixRangeScan(t *testing.T) {
	t.Helper()
	dm, err := storage.NewDiskManager(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("NewDiskManager: %v", err)
	}
	defer dm.Close()
	bpm := storage.NewBufferPool(16, dm, 2)
	header := bpm.NewPage()

	type key = Pair[int64, int64]
	cmp := ComparePair[int64, int64](
		func(a, b int64) int { return int(a - b) },
		func(a, b int64) int { return int(a - b) },
	)
	degCmp := PrefixCmpPair[int64, int64](func(a, b int64) int { return int(a - b) })

	codec := PairCodec[int64, int64]{A: Int64Codec{}, B: Int64Codec{}}
	tr, err := Open[key, int64]("test", header, bpm, cmp, degCmp, codec, Int64Codec{}, 4, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entries := []struct {
		train, date, seat int64
	}{
		{1, 100, 10}, {1, 101, 11}, {1, 102, 12},
		{2, 100, 20}, {2, 101, 21},
		{3, 100, 30},
	}
	for _, e := range entries {
		tr.Insert(key{First: e.train, Second: e.date}, e.seat)
	}

	var out []int64
	tr.GetAllValue(key{First: 1, Second: 0}, &out)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if len(out) != 3 || out[0] != 10 || out[1] != 11 || out[2] != 12 {
		t.Fatalf("GetAllValue(train=1) = %v, want [10 11 12]", out)
	}

	var none []int64
	tr.GetAllValue(key{First: 99, Second: 0}, &none)
	if len(none) != 0 {
		t.Fatalf("GetAllValue(train=99) = %v, want empty", none)
	}
}

// TestBTreeEqualPrefixRangeScanAcrossSplit covers a class that spans a
// leaf split, so its separator in the parent is itself class-equal to the
// query: inserting (X,1..5) with leaf_max=4 splits into L=[1,2,3] and
// R=[4,5] with root separator (X,4). A scan for X must still start at L,
// not just R, or its earliest entries go missing.
func TestBTreeEqualPrefixRangeScanAcrossSplit(t *testing.T) {
	dm, err := storage.NewDiskManager(filepath.Join(t.TempDir(), "idx"))
	if err != nil {
		t.Fatalf("NewDiskManager: %v", err)
	}
	defer dm.Close()
	bpm := storage.NewBufferPool(16, dm, 2)
	header := bpm.NewPage()

	type key = Pair[int64, int64]
	cmp := ComparePair[int64, int64](
		func(a, b int64) int { return int(a - b) },
		func(a, b int64) int { return int(a - b) },
	)
	degCmp := PrefixCmpPair[int64, int64](func(a, b int64) int { return int(a - b) })

	codec := PairCodec[int64, int64]{A: Int64Codec{}, B: Int64Codec{}}
	tr, err := Open[key, int64]("test", header, bpm, cmp, degCmp, codec, Int64Codec{}, 4, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const trainX = int64(7)
	for _, date := range []int64{1, 2, 3, 4, 5} {
		tr.Insert(key{First: trainX, Second: date}, date)
	}

	var out []int64
	tr.GetAllValue(key{First: trainX, Second: 0}, &out)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if len(out) != 5 || out[0] != 1 || out[1] != 2 || out[2] != 3 || out[3] != 4 || out[4] != 5 {
		t.Fatalf("GetAllValue(train=%d) = %v, want [1 2 3 4 5]", trainX, out)
	}
}

func TestBTreeReopenRestoresRootAndAllocator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx")

	dm, err := storage.NewDiskManager(path)
	if err != nil {
		t.Fatalf("NewDiskManager: %v", err)
	}
	bpm := storage.NewBufferPool(16, dm, 2)
	header := bpm.NewPage()
	cmp := func(a, b int64) int { return int(a - b) }
	tr, err := Open[int64, int64]("test", header, bpm, cmp, cmp, Int64Codec{}, Int64Codec{}, 4, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := int64(0); i < 20; i++ {
		tr.Insert(i, i*2)
	}
	tr.Close()

	dm2, err := storage.NewDiskManager(path)
	if err != nil {
		t.Fatalf("reopen NewDiskManager: %v", err)
	}
	defer dm2.Close()
	bpm2 := storage.NewBufferPool(16, dm2, 2)
	tr2, err := Open[int64, int64]("test", header, bpm2, cmp, cmp, Int64Codec{}, Int64Codec{}, 4, 4)
	if err != nil {
		t.Fatalf("reopen Open: %v", err)
	}
	for i := int64(0); i < 20; i++ {
		var out []int64
		if !tr2.GetValue(i, &out) || out[0] != i*2 {
			t.Fatalf("GetValue(%d) after reopen = %v, want [%d]", i, out, i*2)
		}
	}
	// Inserting past the previous high-water mark must not collide with an
	// already-allocated page id.
	if !tr2.Insert(100, 1000) {
		t.Fatal("Insert(100) after reopen = false, want true")
	}
}
