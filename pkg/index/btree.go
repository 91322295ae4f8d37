// Package index implements a disk-resident B+ tree over pkg/storage's
// buffer pool, supporting unique point lookups and equal-prefix range
// scans. It generalizes the teacher's in-memory BTree (pkg/index/btree.go,
// pkg/index/btree_disk.go) by parameterizing over (K, V) with Go generics
// in place of interface{} comparisons, and by making every node a
// page-resident, guard-protected structure instead of an in-memory pointer
// tree with a lazily loaded disk mirror.
package index

import (
	"fmt"
	"sync"

	"github.com/railhub/ticketdb/pkg/storage"
)

// BTree is a persistent ordered map keyed by K with values V. Cmp is the
// total order used for point lookups, inserts, and removes; DegCmp is the
// coarser order-consistent comparator used for equal-prefix range scans
// (GetAllValue). See GLOSSARY for the degraded-comparator contract.
type BTree[K any, V any] struct {
	mu sync.Mutex // serializes mutating operations across the whole tree

	name         string
	headerPageID storage.PageID
	bpm          *storage.BufferPool

	cmp    func(a, b K) int
	degCmp func(a, b K) int

	keyCodec KeyCodec[K]
	valCodec ValueCodec[V]

	leafMax     int
	internalMax int
}

// Open constructs or reopens a B+ tree whose header lives at headerPageID
// (conventionally page 0 of its own file). The caller must have already
// allocated headerPageID via bpm.NewPage() for a brand-new tree.
func Open[K any, V any](
	name string,
	headerPageID storage.PageID,
	bpm *storage.BufferPool,
	cmp, degCmp func(a, b K) int,
	keyCodec KeyCodec[K],
	valCodec ValueCodec[V],
	leafMax, internalMax int,
) (*BTree[K, V], error) {
	if max := MaxLeafFanout(keyCodec.Size(), valCodec.Size()); leafMax <= 0 || leafMax > max {
		return nil, fmt.Errorf("ticketdb: index %s: leaf max size %d exceeds page capacity %d", name, leafMax, max)
	}
	if max := MaxInternalFanout(keyCodec.Size()); internalMax <= 0 || internalMax > max {
		return nil, fmt.Errorf("ticketdb: index %s: internal max size %d exceeds page capacity %d", name, internalMax, max)
	}

	t := &BTree[K, V]{
		name:         name,
		headerPageID: headerPageID,
		bpm:          bpm,
		cmp:          cmp,
		degCmp:       degCmp,
		keyCodec:     keyCodec,
		valCodec:     valCodec,
		leafMax:      leafMax,
		internalMax:  internalMax,
	}

	g := bpm.WritePage(headerPageID)
	hdr, ok := decodeHeader(g.Data())
	if !ok {
		hdr = treeHeader{rootPageID: storage.InvalidPageID, nextPageIDHint: bpm.NextPageIDHint()}
		encodeHeader(g.Data(), hdr)
	}
	bpm.RestoreNextPageID(hdr.nextPageIDHint)
	g.Drop()
	return t, nil
}

// Close persists the buffer pool's next-page-id allocator into the header
// page and flushes every dirty page belonging to this tree's file.
func (t *BTree[K, V]) Close() {
	g := t.bpm.WritePage(t.headerPageID)
	hdr, _ := decodeHeader(g.Data())
	hdr.nextPageIDHint = t.bpm.NextPageIDHint()
	encodeHeader(g.Data(), hdr)
	g.Drop()
	t.bpm.FlushAllPages()
}

func (t *BTree[K, V]) readHeader() treeHeader {
	g := t.bpm.ReadPage(t.headerPageID)
	defer g.Drop()
	hdr, _ := decodeHeader(g.Data())
	return hdr
}

// IsEmpty reports whether the tree holds no entries.
func (t *BTree[K, V]) IsEmpty() bool {
	return t.readHeader().rootPageID == storage.InvalidPageID
}

// RootPageID returns the tree's current root, or InvalidPageID if empty.
func (t *BTree[K, V]) RootPageID() storage.PageID {
	return t.readHeader().rootPageID
}

// descendRead walks from root to the leaf that would contain key, holding
// at most two read guards at a time (spec.md §5: a reader releases the
// parent before descending further) and returns the leaf's guard and
// decoded contents. useDegCmp selects point descent vs. equal-prefix-class
// descent.
func (t *BTree[K, V]) descendRead(root storage.PageID, key K, useDegCmp bool) (*storage.ReadPageGuard, *leafNode[K, V]) {
	cur := t.bpm.ReadPage(root)
	for {
		buf := cur.Data()
		if isLeafPage(buf) {
			return cur, decodeLeaf[K, V](buf, t.keyCodec, t.valCodec, t.leafMax)
		}
		internal := decodeInternal[K](buf, t.keyCodec, t.internalMax)
		var idx int
		if useDegCmp {
			idx = chooseChildIndexClass(internal.keys, internal.size(), key, t.degCmp)
		} else {
			idx = chooseChildIndex(internal.keys, internal.size(), key, t.cmp)
		}
		child := t.bpm.ReadPage(internal.children[idx])
		cur.Drop()
		cur = child
	}
}

// GetValue looks up the unique value stored for k, appending it to out and
// returning true if found.
func (t *BTree[K, V]) GetValue(k K, out *[]V) bool {
	hdr := t.readHeader()
	if hdr.rootPageID == storage.InvalidPageID {
		return false
	}
	g, leaf := t.descendRead(hdr.rootPageID, k, false)
	defer g.Drop()
	pos, found := leaf.find(k, t.cmp)
	if !found {
		return false
	}
	*out = append(*out, leaf.values[pos])
	return true
}

// GetAllValue appends every value whose key shares k's equal-prefix class
// under DegCmp, following the leaf chain until the class ends.
func (t *BTree[K, V]) GetAllValue(k K, out *[]V) {
	hdr := t.readHeader()
	if hdr.rootPageID == storage.InvalidPageID {
		return
	}
	g, leaf := t.descendRead(hdr.rootPageID, k, true)
	for {
		stop := false
		for i := range leaf.keys {
			c := t.degCmp(leaf.keys[i], k)
			if c == 0 {
				*out = append(*out, leaf.values[i])
			} else if c > 0 {
				stop = true
				break
			}
		}
		next := leaf.nextPageID
		g.Drop()
		if stop || next == storage.InvalidPageID {
			return
		}
		g = t.bpm.ReadPage(next)
		leaf = decodeLeaf[K, V](g.Data(), t.keyCodec, t.valCodec, t.leafMax)
	}
}

type writeFrame struct {
	guard    *storage.WritePageGuard
	id       storage.PageID
	childIdx int // valid for internal frames: which child this path took
}

func dropAll(frames []writeFrame) {
	for _, f := range frames {
		f.guard.Drop()
	}
}

// Insert adds (k, v). It returns false without modifying the tree if k is
// already present.
func (t *BTree[K, V]) Insert(k K, v V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	hg := t.bpm.WritePage(t.headerPageID)
	hdr, _ := decodeHeader(hg.Data())

	if hdr.rootPageID == storage.InvalidPageID {
		rootID := t.bpm.NewPage()
		rg := t.bpm.WritePage(rootID)
		leaf := newLeafNode[K, V](t.leafMax)
		leaf.keys = append(leaf.keys, k)
		leaf.values = append(leaf.values, v)
		encodeLeaf(rg.Data(), leaf, t.keyCodec, t.valCodec)
		rg.Drop()

		hdr.rootPageID = rootID
		encodeHeader(hg.Data(), hdr)
		hg.Drop()
		return true
	}

	// Descend holding write guards on the full path (spec.md §4.4.3): a
	// single-writer serialization of the whole tree per Insert/Remove call
	// (t.mu) makes this trivially safe and is a valid degenerate case of
	// the crabbing contract described in spec.md §5.
	var path []writeFrame
	curID := hdr.rootPageID
	for {
		g := t.bpm.WritePage(curID)
		if isLeafPage(g.Data()) {
			path = append(path, writeFrame{guard: g, id: curID})
			break
		}
		internal := decodeInternal[K](g.Data(), t.keyCodec, t.internalMax)
		idx := chooseChildIndex(internal.keys, internal.size(), k, t.cmp)
		path = append(path, writeFrame{guard: g, id: curID, childIdx: idx})
		curID = internal.children[idx]
	}

	leafFrame := path[len(path)-1]
	leaf := decodeLeaf[K, V](leafFrame.guard.Data(), t.keyCodec, t.valCodec, t.leafMax)
	pos, found := leaf.find(k, t.cmp)
	if found {
		dropAll(path)
		hg.Drop()
		return false
	}
	leaf.insertAt(pos, k, v)

	if leaf.size() <= t.leafMax {
		encodeLeaf(leafFrame.guard.Data(), leaf, t.keyCodec, t.valCodec)
		dropAll(path)
		hg.Drop()
		return true
	}

	right := leaf.splitRight()
	newLeafID := t.bpm.NewPage()
	leaf.nextPageID = newLeafID
	rg := t.bpm.WritePage(newLeafID)
	encodeLeaf(rg.Data(), right, t.keyCodec, t.valCodec)
	encodeLeaf(leafFrame.guard.Data(), leaf, t.keyCodec, t.valCodec)
	rg.Drop()
	leafFrame.guard.Drop()

	sepKey := right.keys[0]
	newChildID := newLeafID
	path = path[:len(path)-1]

	for len(path) > 0 {
		pf := path[len(path)-1]
		path = path[:len(path)-1]

		internal := decodeInternal[K](pf.guard.Data(), t.keyCodec, t.internalMax)
		idx := chooseChildIndex(internal.keys, internal.size(), k, t.cmp)
		internal.insertAfter(idx, sepKey, newChildID)

		if internal.size() <= t.internalMax {
			encodeInternal(pf.guard.Data(), internal, t.keyCodec)
			pf.guard.Drop()
			dropAll(path)
			hg.Drop()
			return true
		}

		rightInternal, promoted := internal.splitRight()
		newInternalID := t.bpm.NewPage()
		ng := t.bpm.WritePage(newInternalID)
		encodeInternal(ng.Data(), rightInternal, t.keyCodec)
		encodeInternal(pf.guard.Data(), internal, t.keyCodec)
		ng.Drop()
		pf.guard.Drop()

		sepKey = promoted
		newChildID = newInternalID
	}

	// The split propagated past the old root: allocate a new one.
	newRootID := t.bpm.NewPage()
	nrg := t.bpm.WritePage(newRootID)
	var zero K
	newRoot := newInternalNode[K](t.internalMax)
	newRoot.children = []storage.PageID{hdr.rootPageID, newChildID}
	newRoot.keys = []K{zero, sepKey}
	encodeInternal(nrg.Data(), newRoot, t.keyCodec)
	nrg.Drop()

	hdr.rootPageID = newRootID
	encodeHeader(hg.Data(), hdr)
	hg.Drop()
	return true
}

type rebalanceResult struct {
	done            bool
	removedChildIdx int // valid when !done: index removed from the parent
}

// rebalanceLeaf restores leaf's minimum occupancy by borrowing from a
// sibling, or coalescing with one if neither can lend (spec.md §4.4.4:
// left sibling tried first for both borrow and coalesce).
func (t *BTree[K, V]) rebalanceLeaf(parent *internalNode[K], parentGuard *storage.WritePageGuard, myIdx int, leaf *leafNode[K, V], leafGuard *storage.WritePageGuard, minSize int) rebalanceResult {
	if myIdx > 0 {
		leftGuard := t.bpm.WritePage(parent.children[myIdx-1])
		left := decodeLeaf[K, V](leftGuard.Data(), t.keyCodec, t.valCodec, t.leafMax)
		if left.size() > minSize {
			parent.keys[myIdx] = leaf.borrowFromLeft(left)
			encodeLeaf(leftGuard.Data(), left, t.keyCodec, t.valCodec)
			encodeLeaf(leafGuard.Data(), leaf, t.keyCodec, t.valCodec)
			encodeInternal(parentGuard.Data(), parent, t.keyCodec)
			leftGuard.Drop()
			return rebalanceResult{done: true}
		}
		if myIdx < parent.size()-1 {
			rightGuard := t.bpm.WritePage(parent.children[myIdx+1])
			right := decodeLeaf[K, V](rightGuard.Data(), t.keyCodec, t.valCodec, t.leafMax)
			if right.size() > minSize {
				parent.keys[myIdx+1] = leaf.borrowFromRight(right)
				encodeLeaf(rightGuard.Data(), right, t.keyCodec, t.valCodec)
				encodeLeaf(leafGuard.Data(), leaf, t.keyCodec, t.valCodec)
				encodeInternal(parentGuard.Data(), parent, t.keyCodec)
				leftGuard.Drop()
				rightGuard.Drop()
				return rebalanceResult{done: true}
			}
			rightGuard.Drop()
		}
		left.mergeFromRight(leaf)
		encodeLeaf(leftGuard.Data(), left, t.keyCodec, t.valCodec)
		leftGuard.Drop()
		leafGuard.Drop()
		t.bpm.DeletePage(leafGuard.PageID())
		return rebalanceResult{removedChildIdx: myIdx}
	}

	rightGuard := t.bpm.WritePage(parent.children[myIdx+1])
	right := decodeLeaf[K, V](rightGuard.Data(), t.keyCodec, t.valCodec, t.leafMax)
	if right.size() > minSize {
		parent.keys[myIdx+1] = leaf.borrowFromRight(right)
		encodeLeaf(rightGuard.Data(), right, t.keyCodec, t.valCodec)
		encodeLeaf(leafGuard.Data(), leaf, t.keyCodec, t.valCodec)
		encodeInternal(parentGuard.Data(), parent, t.keyCodec)
		rightGuard.Drop()
		return rebalanceResult{done: true}
	}
	leaf.mergeFromRight(right)
	encodeLeaf(leafGuard.Data(), leaf, t.keyCodec, t.valCodec)
	rightGuard.Drop()
	t.bpm.DeletePage(rightGuard.PageID())
	return rebalanceResult{removedChildIdx: myIdx + 1}
}

// rebalanceInternal is rebalanceLeaf's counterpart for internal nodes:
// borrow/merge happen through the parent separator (see
// (*internalNode).borrowFromLeftInternal and friends).
func (t *BTree[K, V]) rebalanceInternal(parent *internalNode[K], parentGuard *storage.WritePageGuard, myIdx int, node *internalNode[K], nodeGuard *storage.WritePageGuard, minSize int) rebalanceResult {
	if myIdx > 0 {
		leftGuard := t.bpm.WritePage(parent.children[myIdx-1])
		left := decodeInternal[K](leftGuard.Data(), t.keyCodec, t.internalMax)
		if left.size() > minSize {
			parent.keys[myIdx] = node.borrowFromLeftInternal(left, parent.keys[myIdx])
			encodeInternal(leftGuard.Data(), left, t.keyCodec)
			encodeInternal(nodeGuard.Data(), node, t.keyCodec)
			encodeInternal(parentGuard.Data(), parent, t.keyCodec)
			leftGuard.Drop()
			return rebalanceResult{done: true}
		}
		if myIdx < parent.size()-1 {
			rightGuard := t.bpm.WritePage(parent.children[myIdx+1])
			right := decodeInternal[K](rightGuard.Data(), t.keyCodec, t.internalMax)
			if right.size() > minSize {
				parent.keys[myIdx+1] = node.borrowFromRightInternal(right, parent.keys[myIdx+1])
				encodeInternal(rightGuard.Data(), right, t.keyCodec)
				encodeInternal(nodeGuard.Data(), node, t.keyCodec)
				encodeInternal(parentGuard.Data(), parent, t.keyCodec)
				leftGuard.Drop()
				rightGuard.Drop()
				return rebalanceResult{done: true}
			}
			rightGuard.Drop()
		}
		left.mergeFromRightInternal(node, parent.keys[myIdx])
		encodeInternal(leftGuard.Data(), left, t.keyCodec)
		leftGuard.Drop()
		nodeGuard.Drop()
		t.bpm.DeletePage(nodeGuard.PageID())
		return rebalanceResult{removedChildIdx: myIdx}
	}

	rightGuard := t.bpm.WritePage(parent.children[myIdx+1])
	right := decodeInternal[K](rightGuard.Data(), t.keyCodec, t.internalMax)
	if right.size() > minSize {
		parent.keys[myIdx+1] = node.borrowFromRightInternal(right, parent.keys[myIdx+1])
		encodeInternal(rightGuard.Data(), right, t.keyCodec)
		encodeInternal(nodeGuard.Data(), node, t.keyCodec)
		encodeInternal(parentGuard.Data(), parent, t.keyCodec)
		rightGuard.Drop()
		return rebalanceResult{done: true}
	}
	node.mergeFromRightInternal(right, parent.keys[myIdx+1])
	encodeInternal(nodeGuard.Data(), node, t.keyCodec)
	rightGuard.Drop()
	t.bpm.DeletePage(rightGuard.PageID())
	return rebalanceResult{removedChildIdx: myIdx + 1}
}

// Remove deletes k if present. It is a no-op if k is absent.
func (t *BTree[K, V]) Remove(k K) {
	t.mu.Lock()
	defer t.mu.Unlock()

	hg := t.bpm.WritePage(t.headerPageID)
	hdr, _ := decodeHeader(hg.Data())
	if hdr.rootPageID == storage.InvalidPageID {
		hg.Drop()
		return
	}

	var path []writeFrame
	curID := hdr.rootPageID
	for {
		g := t.bpm.WritePage(curID)
		if isLeafPage(g.Data()) {
			path = append(path, writeFrame{guard: g, id: curID})
			break
		}
		internal := decodeInternal[K](g.Data(), t.keyCodec, t.internalMax)
		idx := chooseChildIndex(internal.keys, internal.size(), k, t.cmp)
		path = append(path, writeFrame{guard: g, id: curID, childIdx: idx})
		curID = internal.children[idx]
	}

	leafFrame := path[len(path)-1]
	leaf := decodeLeaf[K, V](leafFrame.guard.Data(), t.keyCodec, t.valCodec, t.leafMax)
	pos, found := leaf.find(k, t.cmp)
	if !found {
		dropAll(path)
		hg.Drop()
		return
	}
	leaf.removeAt(pos)
	encodeLeaf(leafFrame.guard.Data(), leaf, t.keyCodec, t.valCodec)

	if len(path) == 1 {
		// The leaf is also the root.
		if leaf.size() == 0 {
			t.bpm.DeletePage(path[0].id)
			hdr.rootPageID = storage.InvalidPageID
			encodeHeader(hg.Data(), hdr)
		}
		path[0].guard.Drop()
		hg.Drop()
		return
	}

	leafMinSize := (t.leafMax + 1) / 2
	internalMinSize := (t.internalMax + 1) / 2

	mergedIdx := -1
	if leaf.size() < leafMinSize {
		parentFrame := path[len(path)-2]
		parent := decodeInternal[K](parentFrame.guard.Data(), t.keyCodec, t.internalMax)
		res := t.rebalanceLeaf(parent, parentFrame.guard, parentFrame.childIdx, leaf, leafFrame.guard, leafMinSize)
		if !res.done {
			mergedIdx = res.removedChildIdx
		}
	}
	path[len(path)-1].guard.Drop()

	for level := len(path) - 2; level >= 0 && mergedIdx >= 0; level-- {
		frame := path[level]
		internal := decodeInternal[K](frame.guard.Data(), t.keyCodec, t.internalMax)
		internal.removeChildAt(mergedIdx)
		mergedIdx = -1

		if level == 0 {
			if internal.size() == 1 {
				hdr.rootPageID = internal.children[0]
				t.bpm.DeletePage(frame.id)
				encodeHeader(hg.Data(), hdr)
			} else {
				encodeInternal(frame.guard.Data(), internal, t.keyCodec)
			}
			break
		}

		if internal.size() >= internalMinSize {
			encodeInternal(frame.guard.Data(), internal, t.keyCodec)
			break
		}

		parentFrame := path[level-1]
		parent := decodeInternal[K](parentFrame.guard.Data(), t.keyCodec, t.internalMax)
		res := t.rebalanceInternal(parent, parentFrame.guard, parentFrame.childIdx, internal, frame.guard, internalMinSize)
		if res.done {
			break
		}
		mergedIdx = res.removedChildIdx
	}

	dropAll(path[:len(path)-1])
	hg.Drop()
}
