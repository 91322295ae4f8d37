package storage

import "errors"

var (
	// ErrOutOfMemory is returned by CheckedReadPage/CheckedWritePage when
	// every frame is pinned and no frame can be evicted.
	ErrOutOfMemory = errors.New("ticketdb: buffer pool out of frames")

	// ErrPinned is returned by DeletePage when the page is still pinned.
	ErrPinned = errors.New("ticketdb: page is pinned")

	// ErrInvalidFrame is returned by the replacer when a frame id falls
	// outside [0, replacerSize).
	ErrInvalidFrame = errors.New("ticketdb: invalid frame id")

	// ErrNonEvictableFrame is returned by Remove when the frame is known
	// but currently marked non-evictable.
	ErrNonEvictableFrame = errors.New("ticketdb: frame is not evictable")

	// ErrIO names unrecoverable disk I/O failures. No function in this
	// package returns it: DiskManager aborts the process through
	// log.Fatalf on a failed read, write, sync or resize instead.
	ErrIO = errors.New("ticketdb: disk I/O error")
)
