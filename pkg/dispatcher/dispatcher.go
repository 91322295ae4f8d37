// Package dispatcher implements the line-oriented command interface the
// rest of the system is driven through: one line in, one line of output
// out, matching the original management layer's "-<flag> <value>"
// grammar and per-line timestamp echo.
package dispatcher

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/railhub/ticketdb/internal/config"
	"github.com/railhub/ticketdb/pkg/ticket"
	"github.com/railhub/ticketdb/pkg/train"
	"github.com/railhub/ticketdb/pkg/user"
)

// Paths lists every flat file the three domain stores open, all rooted
// under the configured data directory.
type Paths struct {
	UserDB       string
	TrainCatalog string
	TrainRecords string
	Ticket       ticket.Paths
}

// PathsFor derives the standard file layout under dir.
func PathsFor(dir string) Paths {
	return Paths{
		UserDB:       filepath.Join(dir, "user_db"),
		TrainCatalog: filepath.Join(dir, "train_db"),
		TrainRecords: filepath.Join(dir, "train_records"),
		Ticket: ticket.Paths{
			SeatDB:    filepath.Join(dir, "ticket_seat_db"),
			OrderDB:   filepath.Join(dir, "ticket_order_db"),
			PendingDB: filepath.Join(dir, "ticket_pending_db"),
			StationDB: filepath.Join(dir, "ticket_station_db"),
			ByTrainDB: filepath.Join(dir, "ticket_by_train_db"),
		},
	}
}

func (p Paths) files() []string {
	return []string{
		p.UserDB, p.TrainCatalog, p.TrainRecords,
		p.Ticket.SeatDB, p.Ticket.OrderDB, p.Ticket.PendingDB,
		p.Ticket.StationDB, p.Ticket.ByTrainDB,
	}
}

// Dispatcher owns the three domain stores and routes command lines to
// them.
type Dispatcher struct {
	cfg   *config.Config
	paths Paths

	users   *user.Store
	trains  *train.Store
	tickets *ticket.Store
}

// Open opens (or creates) every backing store under cfg.DataDir.
func Open(cfg *config.Config) (*Dispatcher, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ticketdb: create data dir: %w", err)
	}
	paths := PathsFor(cfg.DataDir)
	return openWith(cfg, paths)
}

func openWith(cfg *config.Config, paths Paths) (*Dispatcher, error) {
	tickets, err := ticket.Open(paths.Ticket, cfg.BufferPoolSize, cfg.ReplacerK, cfg.LeafMaxSize, cfg.InternalMaxSize)
	if err != nil {
		return nil, err
	}
	trains, err := train.Open(paths.TrainCatalog, paths.TrainRecords, cfg.BufferPoolSize, cfg.ReplacerK, cfg.LeafMaxSize, cfg.InternalMaxSize, tickets)
	if err != nil {
		tickets.Close()
		return nil, err
	}
	users, err := user.Open(paths.UserDB, cfg.BufferPoolSize, cfg.ReplacerK, cfg.LeafMaxSize, cfg.InternalMaxSize)
	if err != nil {
		trains.Close()
		tickets.Close()
		return nil, err
	}
	return &Dispatcher{cfg: cfg, paths: paths, users: users, trains: trains, tickets: tickets}, nil
}

// Close persists and releases every backing store.
func (d *Dispatcher) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{d.users, d.trains, d.tickets} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// clean closes every store, deletes their backing files, and reopens
// fresh ones, mirroring the original `Clean` command.
func (d *Dispatcher) clean() error {
	if err := d.Close(); err != nil {
		return err
	}
	for _, f := range d.paths.files() {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	fresh, err := openWith(d.cfg, d.paths)
	if err != nil {
		return err
	}
	*d = *fresh
	return nil
}

// Run reads one command per line from in and writes one response line
// per command to out, until an "exit" command or end of input.
func (d *Dispatcher) Run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply, done := d.Dispatch(line)
		if reply != "" {
			fmt.Fprintln(out, reply)
		}
		if done {
			return nil
		}
	}
	return scanner.Err()
}

// Dispatch handles a single "[<timestamp>] <cmd> ..." line, returning
// the formatted reply and whether the caller should stop the loop.
func (d *Dispatcher) Dispatch(line string) (reply string, done bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}
	ts, cmd := fields[0], fields[1]
	f := parseFlags(fields[2:])

	if cmd == "exit" {
		return ts + " bye", true
	}

	result, fatal := d.execute(cmd, f)
	if fatal != nil {
		log.Fatalf("ticketdb: fatal error handling %q: %v", cmd, fatal)
	}
	return ts + " " + result, false
}

// execute runs one command and returns its single-line reply. The
// second return value is non-nil only when clean fails to close, remove
// or reopen the data files; disk I/O failures never reach it because the
// disk manager aborts through log.Fatalf itself. Ordinary domain failures (bad
// credentials, unknown train, route mismatch, ...) are reported as the
// "-1" reply instead, matching the original CLI's convention.
func (d *Dispatcher) execute(cmd string, f map[byte]string) (string, error) {
	switch cmd {
	case "add_user":
		return d.cmdAddUser(f)
	case "login":
		return d.cmdLogin(f)
	case "logout":
		return d.cmdLogout(f)
	case "query_profile":
		return d.cmdQueryProfile(f)
	case "modify_profile":
		return d.cmdModifyProfile(f)
	case "add_train":
		return d.cmdAddTrain(f)
	case "delete_train":
		return d.cmdDeleteTrain(f)
	case "release_train":
		return d.cmdReleaseTrain(f)
	case "query_train":
		return d.cmdQueryTrain(f)
	case "buy_ticket":
		return d.cmdBuyTicket(f)
	case "query_order":
		return d.cmdQueryOrder(f)
	case "refund_ticket":
		return d.cmdRefundTicket(f)
	case "query_ticket":
		return d.cmdQueryTicket(f)
	case "query_transfer":
		return d.cmdQueryTransfer(f)
	case "clean":
		// clean closing/reopening every store is the one dispatcher
		// operation where failure (file removal, reopen) isn't a
		// recoverable domain error like a bad password or missing
		// train — it leaves the stores in an unknown state, so it is
		// reported as fatal rather than folded into "-1".
		if err := d.clean(); err != nil {
			return "", err
		}
		return "0", nil
	default:
		return "-1", nil
	}
}
