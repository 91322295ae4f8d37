package index

import "errors"

// ErrDuplicateKey names a rejected Insert of a key already present in a
// unique index. BTree.Insert does not return it: it reports a duplicate by
// returning false.
var ErrDuplicateKey = errors.New("ticketdb: duplicate key")
