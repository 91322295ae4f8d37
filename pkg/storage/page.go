package storage

// PageSize is the size of every on-disk page. The B+ tree header, internal,
// and leaf page layouts (see pkg/index) are all sized to fit a single page.
const PageSize = 4096

// PageID identifies a page within a single flat file (one file per index or
// per raw table, following the teacher's one-collection-one-file layout).
// InvalidPageID marks "no page": an empty tree's root, a leaf's last
// next_page_id, an unset child slot.
type PageID int32

// InvalidPageID is the sentinel for "no page".
const InvalidPageID PageID = -1
