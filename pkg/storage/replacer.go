package storage

import (
	"container/list"
	"sync"
)

// Replacer is an LRU-K frame replacement policy: frames with fewer than K
// recorded accesses are tracked in a FIFO history queue and evicted oldest
// access-first; frames with K or more accesses move to a cache queue and are
// evicted by the smallest "backward K-distance" (the oldest of their last K
// access timestamps). Ported from the project's original C++ LRUKReplacer
// (src/buffer/lru_k_replacer.cpp), generalized from its fixed two-list
// bookkeeping into the same two-queue shape expressed with container/list.
type Replacer struct {
	mu sync.Mutex

	replacerSize int
	k            int
	timestamp    uint64
	currSize     int

	nodes        map[int]*lruKNode
	historyQueue *list.List // frame ids with < k accesses; Evict picks the oldest first access
	cacheQueue   *list.List // frame ids with >= k accesses, unordered
}

type lruKNode struct {
	frameID   int
	k         int
	history   *list.List // bounded to the last k timestamps, oldest at Front
	evictable bool
	place     *list.Element // this node's element within historyQueue or cacheQueue
}

// NewReplacer creates a replacer governing replacerSize frames (ids
// 0..replacerSize-1), each needing k accesses before distance-based ordering
// applies.
func NewReplacer(replacerSize, k int) *Replacer {
	return &Replacer{
		replacerSize: replacerSize,
		k:            k,
		nodes:        make(map[int]*lruKNode),
		historyQueue: list.New(),
		cacheQueue:   list.New(),
	}
}

func (r *Replacer) validFrame(frameID int) bool {
	return frameID >= 0 && frameID < r.replacerSize
}

// RecordAccess registers an access to frameID at the current logical
// timestamp. It never changes evictability.
func (r *Replacer) RecordAccess(frameID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.validFrame(frameID) {
		return ErrInvalidFrame
	}
	r.timestamp++

	node, ok := r.nodes[frameID]
	if !ok {
		node = &lruKNode{frameID: frameID, k: r.k, history: list.New()}
		node.history.PushBack(r.timestamp)
		r.nodes[frameID] = node
		return nil
	}

	wasFull := node.history.Len() >= node.k
	node.history.PushBack(r.timestamp)
	if node.history.Len() > node.k {
		node.history.Remove(node.history.Front())
	}
	if !node.evictable {
		return nil
	}
	nowFull := node.history.Len() >= node.k
	if !wasFull && nowFull {
		r.historyQueue.Remove(node.place)
		node.place = r.cacheQueue.PushBack(frameID)
	}
	return nil
}

// SetEvictable marks frameID as evictable or pinned. A frame only known to
// RecordAccess but never marked evictable sits outside both queues and is
// never a candidate for Evict.
func (r *Replacer) SetEvictable(frameID int, evictable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.validFrame(frameID) {
		return ErrInvalidFrame
	}
	node, ok := r.nodes[frameID]
	if !ok {
		return nil
	}
	if node.evictable == evictable {
		return nil
	}
	if evictable {
		node.evictable = true
		if node.history.Len() >= node.k {
			node.place = r.cacheQueue.PushBack(frameID)
		} else {
			node.place = r.historyQueue.PushBack(frameID)
		}
		r.currSize++
	} else {
		if node.history.Len() >= node.k {
			r.cacheQueue.Remove(node.place)
		} else {
			r.historyQueue.Remove(node.place)
		}
		node.evictable = false
		node.place = nil
		r.currSize--
	}
	return nil
}

// Evict picks a victim frame: the history-queue frame with the oldest first
// access if one exists, else the cache queue entry with the smallest backward K-distance
// (oldest Kth-most-recent access). Returns ok=false if no frame is
// evictable.
func (r *Replacer) Evict() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currSize == 0 {
		return 0, false
	}
	if r.historyQueue.Len() > 0 {
		var oldest *list.Element
		var oldestFirst uint64
		for e := r.historyQueue.Front(); e != nil; e = e.Next() {
			first := r.nodes[e.Value.(int)].history.Front().Value.(uint64)
			if oldest == nil || first < oldestFirst {
				oldest = e
				oldestFirst = first
			}
		}
		frameID := oldest.Value.(int)
		r.historyQueue.Remove(oldest)
		delete(r.nodes, frameID)
		r.currSize--
		return frameID, true
	}

	var victim *list.Element
	var victimDistance uint64
	for e := r.cacheQueue.Front(); e != nil; e = e.Next() {
		frameID := e.Value.(int)
		distance := r.nodes[frameID].history.Front().Value.(uint64)
		if victim == nil || distance < victimDistance {
			victim = e
			victimDistance = distance
		}
	}
	frameID := victim.Value.(int)
	r.cacheQueue.Remove(victim)
	delete(r.nodes, frameID)
	r.currSize--
	return frameID, true
}

// Remove discards all history for frameID. It is an error to remove a frame
// that is currently pinned (non-evictable); removing an unknown frame is a
// no-op.
func (r *Replacer) Remove(frameID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.validFrame(frameID) {
		return ErrInvalidFrame
	}
	node, ok := r.nodes[frameID]
	if !ok {
		return nil
	}
	if !node.evictable {
		return ErrNonEvictableFrame
	}
	if node.history.Len() >= node.k {
		r.cacheQueue.Remove(node.place)
	} else {
		r.historyQueue.Remove(node.place)
	}
	delete(r.nodes, frameID)
	r.currSize--
	return nil
}

// Size returns the number of currently evictable frames.
func (r *Replacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
