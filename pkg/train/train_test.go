package train

import (
	"path/filepath"
	"testing"
)

type fakeSeatService struct {
	initialized map[string]bool
	registered  map[string]bool
	seats       map[string][]int32
}

func newFakeSeatService() *fakeSeatService {
	return &fakeSeatService{
		initialized: make(map[string]bool),
		registered:  make(map[string]bool),
		seats:       make(map[string][]int32),
	}
}

func (f *fakeSeatService) InitializeSeatInventory(trainID string, stationNum int, seatNum int32, saleBegin, saleEnd int64) error {
	f.initialized[trainID] = true
	row := make([]int32, stationNum)
	for i := range row {
		row[i] = seatNum
	}
	f.seats[trainID] = row
	return nil
}

func (f *fakeSeatService) RegisterStations(trainID string, stations []string, prices, travelTimes, stopoverTimes []int32, startTime int32, saleBegin, saleEnd int64) error {
	f.registered[trainID] = true
	return nil
}

func (f *fakeSeatService) SeatsRemaining(trainID string, date int64) ([]int32, bool) {
	row, ok := f.seats[trainID]
	return row, ok
}

func newTestStore(t *testing.T, seats SeatService) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "train_db"), filepath.Join(dir, "train_records"), 16, 2, 8, 8, seats)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleTrain(id string) Info {
	return Info{
		ID:            id,
		Name:          id,
		StationNum:    3,
		SeatNum:       50,
		Stations:      []string{"A", "B", "C"},
		Prices:        []int32{10, 20},
		StartTime:     480,
		TravelTimes:   []int32{60, 90},
		StopoverTimes: []int32{5},
		SaleDateBegin: 1,
		SaleDateEnd:   10,
		Type:          'G',
	}
}

func TestAddTrainAndQueryUnreleased(t *testing.T) {
	st := newTestStore(t, newFakeSeatService())
	if err := st.AddTrain(sampleTrain("G1")); err != nil {
		t.Fatalf("AddTrain: %v", err)
	}
	if err := st.AddTrain(sampleTrain("G1")); err != ErrTrainExists {
		t.Fatalf("AddTrain duplicate = %v, want ErrTrainExists", err)
	}

	results, err := st.QueryTrain("G1", 5)
	if err != nil {
		t.Fatalf("QueryTrain: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].SeatsRemaining != 50 {
		t.Fatalf("unreleased seats = %d, want 50", results[0].SeatsRemaining)
	}
}

func TestQueryTrainOutsideSaleWindow(t *testing.T) {
	st := newTestStore(t, newFakeSeatService())
	st.AddTrain(sampleTrain("G1"))
	if _, err := st.QueryTrain("G1", 99); err != ErrNotOnSale {
		t.Fatalf("QueryTrain(date=99) = %v, want ErrNotOnSale", err)
	}
}

func TestDeleteTrainBeforeRelease(t *testing.T) {
	st := newTestStore(t, newFakeSeatService())
	st.AddTrain(sampleTrain("G1"))
	if err := st.DeleteTrain("G1"); err != nil {
		t.Fatalf("DeleteTrain: %v", err)
	}
	if _, err := st.QueryTrain("G1", 5); err != ErrTrainNotFound {
		t.Fatalf("QueryTrain after delete = %v, want ErrTrainNotFound", err)
	}
}

func TestReleaseTrainFansOutToSeatService(t *testing.T) {
	seats := newFakeSeatService()
	st := newTestStore(t, seats)
	st.AddTrain(sampleTrain("G1"))

	if err := st.ReleaseTrain("G1"); err != nil {
		t.Fatalf("ReleaseTrain: %v", err)
	}
	if !seats.initialized["G1"] || !seats.registered["G1"] {
		t.Fatal("ReleaseTrain did not fan out to SeatService")
	}
	if err := st.DeleteTrain("G1"); err != ErrAlreadyReleased {
		t.Fatalf("DeleteTrain after release = %v, want ErrAlreadyReleased", err)
	}
	if err := st.ReleaseTrain("G1"); err != ErrAlreadyReleased {
		t.Fatalf("double ReleaseTrain = %v, want ErrAlreadyReleased", err)
	}

	results, err := st.QueryTrain("G1", 5)
	if err != nil {
		t.Fatalf("QueryTrain after release: %v", err)
	}
	if results[0].SeatsRemaining != 50 {
		t.Fatalf("released seats = %d, want 50", results[0].SeatsRemaining)
	}
}
