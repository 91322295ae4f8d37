package ticket

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	p := Paths{
		SeatDB:    filepath.Join(dir, "seat_db"),
		OrderDB:   filepath.Join(dir, "order_db"),
		PendingDB: filepath.Join(dir, "pending_db"),
		StationDB: filepath.Join(dir, "station_db"),
		ByTrainDB: filepath.Join(dir, "by_train_db"),
	}
	st, err := Open(p, 16, 2, 8, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// registerG1 sets up a 3-station train A->B->C with 2 seats per segment,
// released for dates [1, 10].
func registerG1(t *testing.T, st *Store) {
	t.Helper()
	if err := st.InitializeSeatInventory("G1", 3, 2, 1, 10); err != nil {
		t.Fatalf("InitializeSeatInventory(G1): %v", err)
	}
	if err := st.RegisterStations("G1", []string{"A", "B", "C"}, []int32{10, 20}, []int32{60, 90}, []int32{5}, 480, 1, 10); err != nil {
		t.Fatalf("RegisterStations(G1): %v", err)
	}
}

// registerG2 sets up a 2-station train B->D, released for dates [1, 10].
func registerG2(t *testing.T, st *Store) {
	t.Helper()
	if err := st.InitializeSeatInventory("G2", 2, 5, 1, 10); err != nil {
		t.Fatalf("InitializeSeatInventory(G2): %v", err)
	}
	if err := st.RegisterStations("G2", []string{"B", "D"}, []int32{15}, []int32{30}, nil, 0, 1, 10); err != nil {
		t.Fatalf("RegisterStations(G2): %v", err)
	}
}

func TestBuyTicketSuccessThenQueue(t *testing.T) {
	st := newTestStore(t)
	registerG1(t, st)

	id, status, err := st.BuyTicket("alice", "G1", 5, 2, "A", "C", false)
	if err != nil {
		t.Fatalf("BuyTicket(alice): %v", err)
	}
	if status != StatusSuccess || id == "" {
		t.Fatalf("alice status = %v, id = %q, want StatusSuccess and non-empty id", status, id)
	}

	if _, _, err := st.BuyTicket("bob", "G1", 5, 1, "A", "C", false); err != ErrNotEnoughSeats {
		t.Fatalf("BuyTicket(bob, no queue) = %v, want ErrNotEnoughSeats", err)
	}

	bobID, status, err := st.BuyTicket("bob", "G1", 5, 1, "A", "C", true)
	if err != nil {
		t.Fatalf("BuyTicket(bob, queue): %v", err)
	}
	if status != StatusPending || bobID == "" {
		t.Fatalf("bob status = %v, want StatusPending", status)
	}

	orders := st.QueryOrder("bob")
	if len(orders) != 1 || orders[0].Status != StatusPending {
		t.Fatalf("QueryOrder(bob) = %+v, want one pending order", orders)
	}
}

func TestBuyTicketInvalidRoute(t *testing.T) {
	st := newTestStore(t)
	registerG1(t, st)

	if _, _, err := st.BuyTicket("alice", "G1", 5, 1, "C", "A", false); err != ErrInvalidRoute {
		t.Fatalf("BuyTicket(reversed route) = %v, want ErrInvalidRoute", err)
	}
	if _, _, err := st.BuyTicket("alice", "G1", 5, 1, "A", "Z", false); err != ErrInvalidRoute {
		t.Fatalf("BuyTicket(unknown station) = %v, want ErrInvalidRoute", err)
	}
}

func TestRefundTicketDrainsPendingQueue(t *testing.T) {
	st := newTestStore(t)
	registerG1(t, st)

	aliceID, _, err := st.BuyTicket("alice", "G1", 5, 2, "A", "C", false)
	if err != nil {
		t.Fatalf("BuyTicket(alice): %v", err)
	}
	if _, _, err := st.BuyTicket("bob", "G1", 5, 1, "A", "C", true); err != nil {
		t.Fatalf("BuyTicket(bob, queue): %v", err)
	}

	if err := st.RefundTicket("alice", 1); err != nil {
		t.Fatalf("RefundTicket(alice): %v", err)
	}

	aliceOrders := st.QueryOrder("alice")
	if len(aliceOrders) != 1 || aliceOrders[0].OrderID != aliceID || aliceOrders[0].Status != StatusRefunded {
		t.Fatalf("QueryOrder(alice) after refund = %+v, want refunded %q", aliceOrders, aliceID)
	}

	bobOrders := st.QueryOrder("bob")
	if len(bobOrders) != 1 || bobOrders[0].Status != StatusSuccess {
		t.Fatalf("QueryOrder(bob) after drain = %+v, want promoted to StatusSuccess", bobOrders)
	}

	if err := st.RefundTicket("alice", 1); err != ErrOrderNotRefundable {
		t.Fatalf("second RefundTicket(alice) = %v, want ErrOrderNotRefundable", err)
	}
	if err := st.RefundTicket("alice", 5); err != ErrOrderNotFound {
		t.Fatalf("RefundTicket(alice, bad index) = %v, want ErrOrderNotFound", err)
	}
}

func TestQueryTicketDirectRoute(t *testing.T) {
	st := newTestStore(t)
	registerG1(t, st)
	registerG2(t, st)

	quotes := st.QueryTicket("A", "C", 5, true)
	if len(quotes) != 1 {
		t.Fatalf("QueryTicket(A,C) = %+v, want 1 quote", quotes)
	}
	q := quotes[0]
	if q.TrainID != "G1" || q.LeaveDate != 5 || q.Price != 30 || q.SeatsAvailable != 2 {
		t.Fatalf("quote = %+v, want G1/date5/price30/seats2", q)
	}

	if quotes := st.QueryTicket("A", "D", 5, true); len(quotes) != 0 {
		t.Fatalf("QueryTicket(A,D) = %+v, want no direct route", quotes)
	}
}

func TestQueryTransferAcrossSharedStation(t *testing.T) {
	st := newTestStore(t)
	registerG1(t, st)
	registerG2(t, st)

	quote, ok := st.QueryTransfer("A", "D", 5, true)
	if !ok {
		t.Fatal("QueryTransfer(A,D) found no itinerary")
	}
	if quote.FirstTrainID != "G1" || quote.SecondTrainID != "G2" || quote.TransferStation != "B" {
		t.Fatalf("quote = %+v, want G1 -> G2 via B", quote)
	}
	if quote.FirstLeaveDate != 5 || quote.SecondLeaveDate != 6 {
		t.Fatalf("quote dates = %d/%d, want 5/6", quote.FirstLeaveDate, quote.SecondLeaveDate)
	}
	if quote.TotalPrice != 25 {
		t.Fatalf("quote.TotalPrice = %d, want 25", quote.TotalPrice)
	}
}

func TestQueryTransferNoRoute(t *testing.T) {
	st := newTestStore(t)
	registerG1(t, st)

	if _, ok := st.QueryTransfer("A", "Z", 5, true); ok {
		t.Fatal("QueryTransfer(A,Z) should find no itinerary")
	}
}
