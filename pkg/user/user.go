// Package user implements the account catalogue: registration, login
// sessions, and privilege-gated profile queries. It is a thin consumer of
// the B+ tree index (pkg/index) and buffer pool (pkg/storage) — the
// storage substrate those packages provide is the interesting part of
// this system, not the rules in this file.
package user

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/railhub/ticketdb/pkg/index"
	"github.com/railhub/ticketdb/pkg/storage"
)

// Info is the public, password-free view of an account.
type Info struct {
	Username  string
	Name      string
	MailAddr  string
	Privilege int32
}

// Profile describes the fields an AddUser caller supplies.
type Profile struct {
	Username  string
	Password  string
	Name      string
	MailAddr  string
	Privilege int32
}

// ProfileUpdate carries the optional fields a ModifyProfile caller wants
// to change; a nil field is left untouched.
type ProfileUpdate struct {
	Username  string
	Password  *string
	Name      *string
	MailAddr  *string
	Privilege *int32
}

func cmpUsername(a, b string) int { return strings.Compare(a, b) }

// Store is the disk-backed account catalogue plus the process-local set
// of logged-in sessions (a session is process state only; there is no
// network boundary for it to cross).
type Store struct {
	mu       sync.Mutex
	dm       *storage.DiskManager
	bpm      *storage.BufferPool
	tree     *index.BTree[string, record]
	loggedIn map[string]int32 // username -> privilege at login time
}

// Open creates or reopens the account catalogue backed by the flat file
// at path.
func Open(path string, bufferPoolSize, replacerK, leafMax, internalMax int) (*Store, error) {
	dm, err := storage.NewDiskManager(path)
	if err != nil {
		return nil, fmt.Errorf("ticketdb: open user catalogue: %w", err)
	}
	bpm := storage.NewBufferPool(bufferPoolSize, dm, replacerK)

	var header storage.PageID
	if dm.NumPages() == 0 {
		header = bpm.NewPage()
	} else {
		header = 0
	}
	tree, err := index.Open[string, record]("user_db", header, bpm, cmpUsername, cmpUsername, index.FixedStringCodec{N: usernameWidth}, recordCodec{}, leafMax, internalMax)
	if err != nil {
		dm.Close()
		return nil, err
	}
	return &Store{dm: dm, bpm: bpm, tree: tree, loggedIn: make(map[string]int32)}, nil
}

// Close persists the catalogue and releases its backing file.
func (s *Store) Close() error {
	s.tree.Close()
	return s.dm.Close()
}

// AddUser registers a new account. The very first account ever added
// becomes privilege 10 unconditionally; every subsequent add requires
// curUsername to be logged in with a privilege strictly greater than the
// new account's requested privilege.
func (s *Store) AddUser(curUsername string, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.IsEmpty() {
		curPriv, ok := s.loggedIn[curUsername]
		if !ok {
			return ErrNotLoggedIn
		}
		if p.Privilege >= curPriv {
			return ErrPermissionDenied
		}
	} else {
		p.Privilege = 10
	}

	var existing []record
	if s.tree.GetValue(p.Username, &existing) {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ticketdb: hash password: %w", err)
	}

	r := record{
		username:  p.Username,
		passHash:  string(hash),
		name:      p.Name,
		mailAddr:  p.MailAddr,
		privilege: p.Privilege,
	}
	if !s.tree.Insert(p.Username, r) {
		return ErrUserExists
	}
	return nil
}

// Login authenticates username/password and opens a session. It fails if
// a session for username is already open.
func (s *Store) Login(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loggedIn[username]; ok {
		return ErrAlreadyLoggedIn
	}
	var found []record
	if !s.tree.GetValue(username, &found) {
		return ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(found[0].passHash), []byte(password)) != nil {
		return ErrBadCredentials
	}
	s.loggedIn[username] = found[0].privilege
	return nil
}

// Logout closes username's session.
func (s *Store) Logout(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loggedIn[username]; !ok {
		return ErrNotLoggedIn
	}
	delete(s.loggedIn, username)
	return nil
}

// IsLoggedIn reports whether username currently has an open session.
func (s *Store) IsLoggedIn(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loggedIn[username]
	return ok
}

// QueryProfile returns username's profile as seen by curUsername: a user
// may always view their own profile; viewing another's requires strictly
// higher privilege than the target.
func (s *Store) QueryProfile(curUsername, username string) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	curPriv, ok := s.loggedIn[curUsername]
	if !ok {
		return Info{}, ErrNotLoggedIn
	}
	var found []record
	if !s.tree.GetValue(username, &found) {
		return Info{}, ErrUserNotFound
	}
	target := found[0]
	if curUsername != username && curPriv <= target.privilege {
		return Info{}, ErrPermissionDenied
	}
	return target.toInfo(), nil
}

// ModifyProfile applies an optional field update, gated the same way as
// QueryProfile plus an additional check on the requested privilege value.
func (s *Store) ModifyProfile(curUsername string, u ProfileUpdate) (Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	curPriv, ok := s.loggedIn[curUsername]
	if !ok {
		return Info{}, ErrNotLoggedIn
	}
	if u.Privilege != nil && *u.Privilege >= curPriv {
		return Info{}, ErrPermissionDenied
	}

	var found []record
	if !s.tree.GetValue(u.Username, &found) {
		return Info{}, ErrUserNotFound
	}
	target := found[0]
	if curUsername != u.Username && target.privilege >= curPriv {
		return Info{}, ErrPermissionDenied
	}

	if u.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*u.Password), bcrypt.DefaultCost)
		if err != nil {
			return Info{}, fmt.Errorf("ticketdb: hash password: %w", err)
		}
		target.passHash = string(hash)
	}
	if u.Name != nil {
		target.name = *u.Name
	}
	if u.MailAddr != nil {
		target.mailAddr = *u.MailAddr
	}
	if u.Privilege != nil {
		target.privilege = *u.Privilege
	}

	s.tree.Remove(u.Username)
	s.tree.Insert(u.Username, target)
	if _, ok := s.loggedIn[u.Username]; ok {
		s.loggedIn[u.Username] = target.privilege
	}
	return target.toInfo(), nil
}
