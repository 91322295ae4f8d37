// Package train implements the train catalogue: static schedule/pricing
// records plus release/deletion lifecycle. A released train's per-date
// seat inventory is not this package's concern — it lives in pkg/ticket,
// reached through the SeatService interface so this package never
// imports ticket.
package train

import (
	"fmt"
	"strings"

	"github.com/railhub/ticketdb/pkg/index"
	"github.com/railhub/ticketdb/pkg/storage"
)

func cmpTrainID(a, b string) int { return strings.Compare(a, b) }

// Store is the disk-backed train catalogue.
type Store struct {
	catalogDM  *storage.DiskManager
	catalogBPM *storage.BufferPool
	catalog    *index.BTree[string, meta]

	recordDM  *storage.DiskManager
	recordBPM *storage.BufferPool

	seats SeatService
}

// Open creates or reopens the train catalogue. catalogPath backs the
// trainID -> meta index; recordPath backs the full per-train record
// pages. seats receives the fan-out a ReleaseTrain call produces.
func Open(catalogPath, recordPath string, bufferPoolSize, replacerK, leafMax, internalMax int, seats SeatService) (*Store, error) {
	catalogDM, err := storage.NewDiskManager(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("ticketdb: open train catalogue: %w", err)
	}
	catalogBPM := storage.NewBufferPool(bufferPoolSize, catalogDM, replacerK)
	var header storage.PageID
	if catalogDM.NumPages() == 0 {
		header = catalogBPM.NewPage()
	}
	catalog, err := index.Open[string, meta]("train_db", header, catalogBPM, cmpTrainID, cmpTrainID, index.FixedStringCodec{N: trainIDWidth}, metaCodec{}, leafMax, internalMax)
	if err != nil {
		catalogDM.Close()
		return nil, err
	}

	recordDM, err := storage.NewDiskManager(recordPath)
	if err != nil {
		catalogDM.Close()
		return nil, fmt.Errorf("ticketdb: open train records: %w", err)
	}
	recordBPM := storage.NewBufferPool(bufferPoolSize, recordDM, replacerK)

	return &Store{
		catalogDM:  catalogDM,
		catalogBPM: catalogBPM,
		catalog:    catalog,
		recordDM:   recordDM,
		recordBPM:  recordBPM,
		seats:      seats,
	}, nil
}

// Close persists both files backing this catalogue.
func (s *Store) Close() error {
	s.catalog.Close()
	if err := s.catalogDM.Close(); err != nil {
		return err
	}
	s.recordBPM.FlushAllPages()
	return s.recordDM.Close()
}

// AddTrain registers a new, unreleased train.
func (s *Store) AddTrain(info Info) error {
	if info.StationNum > maxStations {
		return ErrTooManyStations
	}
	var existing []meta
	if s.catalog.GetValue(info.ID, &existing) {
		return ErrTrainExists
	}

	pageID := s.recordBPM.NewPage()
	g := s.recordBPM.WritePage(pageID)
	buf := make([]byte, recordSize)
	encodeRecord(info, buf)
	copy(g.Data(), buf)
	g.Drop()

	m := meta{pageID: int32(pageID), saleDateBegin: info.SaleDateBegin, saleDateEnd: info.SaleDateEnd}
	if !s.catalog.Insert(info.ID, m) {
		return ErrTrainExists
	}
	return nil
}

// DeleteTrain removes a train that has not yet been released.
func (s *Store) DeleteTrain(trainID string) error {
	var found []meta
	if !s.catalog.GetValue(trainID, &found) {
		return ErrTrainNotFound
	}
	if found[0].released {
		return ErrAlreadyReleased
	}
	s.catalog.Remove(trainID)
	return nil
}

// ReleaseTrain makes a train queryable and initializes its per-date seat
// inventory and station index through SeatService.
func (s *Store) ReleaseTrain(trainID string) error {
	var found []meta
	if !s.catalog.GetValue(trainID, &found) {
		return ErrTrainNotFound
	}
	m := found[0]
	if m.released {
		return ErrAlreadyReleased
	}

	info := s.readRecord(storage.PageID(m.pageID))

	if err := s.seats.InitializeSeatInventory(trainID, info.StationNum, info.SeatNum, info.SaleDateBegin, info.SaleDateEnd); err != nil {
		return fmt.Errorf("ticketdb: initialize seat inventory for %s: %w", trainID, err)
	}
	if err := s.seats.RegisterStations(trainID, info.Stations, info.Prices, info.TravelTimes, info.StopoverTimes, info.StartTime, info.SaleDateBegin, info.SaleDateEnd); err != nil {
		return fmt.Errorf("ticketdb: register stations for %s: %w", trainID, err)
	}

	m.released = true
	s.catalog.Remove(trainID)
	s.catalog.Insert(trainID, m)
	return nil
}

// QueryResult is one stop in a train's schedule, as returned by
// QueryTrain.
type QueryResult struct {
	Station        string
	ArrivingOffset int32 // minutes since the train's departure date, -1 for the origin
	LeavingOffset  int32 // minutes since the train's departure date, -1 for the terminus
	Price          int32 // cumulative price from the origin
	SeatsRemaining int32
}

// QueryTrain returns the full schedule for trainID on date (a day
// number), including live seat counts if the train has been released.
func (s *Store) QueryTrain(trainID string, date int64) ([]QueryResult, error) {
	var found []meta
	if !s.catalog.GetValue(trainID, &found) {
		return nil, ErrTrainNotFound
	}
	m := found[0]
	if date < m.saleDateBegin || date > m.saleDateEnd {
		return nil, ErrNotOnSale
	}

	info := s.readRecord(storage.PageID(m.pageID))

	var seats []int32
	if m.released {
		seats, _ = s.seats.SeatsRemaining(trainID, date)
	}

	results := make([]QueryResult, info.StationNum)
	cumTime := info.StartTime
	cumPrice := int32(0)
	for i := 0; i < info.StationNum; i++ {
		r := QueryResult{Station: info.Stations[i], Price: cumPrice}
		if i == 0 {
			r.ArrivingOffset = -1
		} else {
			cumTime += info.TravelTimes[i-1]
			r.ArrivingOffset = cumTime
		}
		if i == info.StationNum-1 {
			r.LeavingOffset = -1
		} else {
			if i > 0 {
				cumTime += info.StopoverTimes[i-1]
			}
			r.LeavingOffset = cumTime
		}
		if i > 0 {
			cumPrice += info.Prices[i-1]
			r.Price = cumPrice
		}
		if m.released && i < len(seats) {
			r.SeatsRemaining = seats[i]
		} else if !m.released {
			r.SeatsRemaining = info.SeatNum
		}
		results[i] = r
	}
	return results, nil
}

func (s *Store) readRecord(pageID storage.PageID) Info {
	g := s.recordBPM.ReadPage(pageID)
	defer g.Drop()
	return decodeRecord(g.Data())
}
