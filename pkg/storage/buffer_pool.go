package storage

import (
	"log"
	"sync"
	"sync/atomic"
)

// BufferPool mediates all access to a DiskManager's pages through a fixed
// set of in-memory frames, an LRU-K eviction policy, and page guards.
// Unlike the teacher's map-of-pages-plus-plain-LRU-list cache, frames are a
// preallocated vector sized at construction (spec.md §5: bounded, O(1)
// bookkeeping), and eviction decisions are delegated to a Replacer.
type BufferPool struct {
	mu sync.Mutex

	frames    []*frame
	pageTable map[PageID]int // resident page -> frame index
	freeList  []int

	replacer *Replacer
	diskMgr  *DiskManager

	nextPageID atomic.Int32
}

// NewBufferPool creates a pool of size frames backed by dm, with an LRU-K
// replacer parameterized by k.
func NewBufferPool(size int, dm *DiskManager, k int) *BufferPool {
	frames := make([]*frame, size)
	free := make([]int, size)
	for i := 0; i < size; i++ {
		frames[i] = newFrame(i)
		free[i] = i
	}
	return &BufferPool{
		frames:    frames,
		pageTable: make(map[PageID]int, size),
		freeList:  free,
		replacer:  NewReplacer(size, k),
		diskMgr:   dm,
	}
}

// RestoreNextPageID resumes monotonic allocation from id, used when
// reopening an existing file whose header page recorded where allocation
// had gotten to.
func (bp *BufferPool) RestoreNextPageID(id PageID) {
	bp.nextPageID.Store(int32(id))
}

// NextPageIDHint reports the next id that would be handed out by NewPage,
// to be persisted by the caller (e.g. into a B+ tree header page) before
// shutdown.
func (bp *BufferPool) NextPageIDHint() PageID {
	return PageID(bp.nextPageID.Load())
}

// NewPage reserves the next monotonic page id and grows the backing file to
// cover it. It cannot fail under normal operation.
func (bp *BufferPool) NewPage() PageID {
	id := PageID(bp.nextPageID.Add(1) - 1)
	bp.diskMgr.IncreaseDiskSpace(int(id) + 1)
	return id
}

// DeletePage frees page id if it is not currently pinned. It reports
// (false, ErrPinned) without deleting anything if the page is pinned.
func (bp *BufferPool) DeletePage(id PageID) (bool, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	fi, resident := bp.pageTable[id]
	if !resident {
		bp.diskMgr.DeletePage(id)
		return true, nil
	}
	fr := bp.frames[fi]
	if atomic.LoadInt32(&fr.pinCount) > 0 {
		return false, ErrPinned
	}
	bp.replacer.Remove(fi)
	delete(bp.pageTable, id)
	fr.reset(InvalidPageID)
	bp.freeList = append(bp.freeList, fi)
	bp.diskMgr.DeletePage(id)
	return true, nil
}

// fetch returns the resident frame for id, pinning it and recording an
// access, loading it from disk first if necessary. It implements the
// three-case algorithm from spec.md §4.3: resident hit, free-frame miss,
// evict-then-load miss.
func (bp *BufferPool) fetch(id PageID) (*frame, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if fi, ok := bp.pageTable[id]; ok {
		fr := bp.frames[fi]
		atomic.AddInt32(&fr.pinCount, 1)
		bp.replacer.RecordAccess(fi)
		bp.replacer.SetEvictable(fi, false)
		return fr, nil
	}

	var fi int
	if n := len(bp.freeList); n > 0 {
		fi = bp.freeList[n-1]
		bp.freeList = bp.freeList[:n-1]
	} else {
		victim, ok := bp.replacer.Evict()
		if !ok {
			return nil, ErrOutOfMemory
		}
		fi = victim
		vf := bp.frames[fi]
		if vf.isDirty {
			bp.diskMgr.WritePage(vf.pageID, vf.data[:])
		}
		delete(bp.pageTable, vf.pageID)
	}

	fr := bp.frames[fi]
	fr.reset(id)
	bp.diskMgr.ReadPage(id, fr.data[:])
	bp.pageTable[id] = fi
	atomic.AddInt32(&fr.pinCount, 1)
	bp.replacer.RecordAccess(fi)
	bp.replacer.SetEvictable(fi, false)
	return fr, nil
}

// unpin is called by a page guard's Drop. Once the pin count reaches zero
// the frame becomes a legitimate eviction candidate again.
func (bp *BufferPool) unpin(fr *frame) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if atomic.AddInt32(&fr.pinCount, -1) == 0 {
		bp.replacer.SetEvictable(fr.id, true)
	}
}

// CheckedReadPage acquires a shared read guard on id, or ErrOutOfMemory if
// every frame is pinned.
func (bp *BufferPool) CheckedReadPage(id PageID) (*ReadPageGuard, error) {
	fr, err := bp.fetch(id)
	if err != nil {
		return nil, err
	}
	fr.latch.RLock()
	return &ReadPageGuard{bp: bp, fr: fr}, nil
}

// CheckedWritePage acquires an exclusive write guard on id, marking the
// frame dirty, or ErrOutOfMemory if every frame is pinned.
func (bp *BufferPool) CheckedWritePage(id PageID) (*WritePageGuard, error) {
	fr, err := bp.fetch(id)
	if err != nil {
		return nil, err
	}
	fr.latch.Lock()
	fr.isDirty = true
	return &WritePageGuard{bp: bp, fr: fr}, nil
}

// ReadPage is the infallible form of CheckedReadPage: an out-of-memory
// condition here reflects a misconfigured pool size, not a recoverable
// runtime state, so it aborts the process.
func (bp *BufferPool) ReadPage(id PageID) *ReadPageGuard {
	g, err := bp.CheckedReadPage(id)
	if err != nil {
		log.Fatalf("ticketdb: %v reading page %d", err, id)
	}
	return g
}

// WritePage is the infallible form of CheckedWritePage.
func (bp *BufferPool) WritePage(id PageID) *WritePageGuard {
	g, err := bp.CheckedWritePage(id)
	if err != nil {
		log.Fatalf("ticketdb: %v writing page %d", err, id)
	}
	return g
}

// FlushPage writes a resident page's frame back to disk if dirty. Returns
// false if the page is not resident.
func (bp *BufferPool) FlushPage(id PageID) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	fi, ok := bp.pageTable[id]
	if !ok {
		return false
	}
	fr := bp.frames[fi]
	if fr.isDirty {
		bp.diskMgr.WritePage(id, fr.data[:])
		fr.isDirty = false
	}
	return true
}

// FlushAllPages writes every dirty resident frame back to disk.
func (bp *BufferPool) FlushAllPages() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for id, fi := range bp.pageTable {
		fr := bp.frames[fi]
		if fr.isDirty {
			bp.diskMgr.WritePage(id, fr.data[:])
			fr.isDirty = false
		}
	}
}

// Close flushes all dirty pages and closes the underlying disk manager.
func (bp *BufferPool) Close() error {
	bp.FlushAllPages()
	return bp.diskMgr.Close()
}
