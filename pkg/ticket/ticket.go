// Package ticket implements seat inventory, ticket purchase/refund, and
// route queries. It implements pkg/train.SeatService so a train release
// can fan out into per-date seat rows and a station index without
// pkg/train importing this package.
package ticket

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/railhub/ticketdb/pkg/index"
	"github.com/railhub/ticketdb/pkg/storage"
)

type trainDateKey = index.Pair[string, int64]
type orderKey = index.Pair[string, string]
type pendingKey = index.Pair[trainDateKey, string]
type stationKey = index.Pair[string, string]
type byTrainKey = index.Pair[string, int32]

func cmpString(a, b string) int { return strings.Compare(a, b) }
func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

var cmpTrainDate = index.ComparePair[string, int64](cmpString, cmpInt64)
var degCmpTrainDate = index.PrefixCmpPair[string, int64](cmpString)
var cmpOrderKey = index.ComparePair[string, string](cmpString, cmpString)
var degCmpOrderKey = index.PrefixCmpPair[string, string](cmpString)
var cmpPendingKey = index.ComparePair[trainDateKey, string](cmpTrainDate, cmpString)
var degCmpPendingKey = index.PrefixCmpPair[trainDateKey, string](cmpTrainDate)
var cmpStationKey = index.ComparePair[string, string](cmpString, cmpString)
var degCmpStationKey = index.PrefixCmpPair[string, string](cmpString)
var cmpByTrainKey = index.ComparePair[string, int32](cmpString, cmpInt32)
var degCmpByTrainKey = index.PrefixCmpPair[string, int32](cmpString)

var trainDateCodec = index.PairCodec[string, int64]{A: index.FixedStringCodec{N: trainIDWidth}, B: index.Int64Codec{}}
var orderKeyCodec = index.PairCodec[string, string]{A: index.FixedStringCodec{N: usernameWidth}, B: index.FixedStringCodec{N: orderIDWidth}}
var pendingKeyCodec = index.PairCodec[trainDateKey, string]{A: trainDateCodec, B: index.FixedStringCodec{N: orderIDWidth}}
var stationKeyCodec = index.PairCodec[string, string]{A: index.FixedStringCodec{N: stationWidth}, B: index.FixedStringCodec{N: trainIDWidth}}
var byTrainKeyCodec = index.PairCodec[string, int32]{A: index.FixedStringCodec{N: trainIDWidth}, B: index.Int32Codec{}}

// Store holds every index the ticket domain maintains: per-date seat
// rows, orders, the pending queue, and the two station indexes used for
// route lookups (by station, and by train).
type Store struct {
	mu sync.Mutex

	seatDM   *storage.DiskManager
	seatBPM  *storage.BufferPool
	seatTree *index.BTree[trainDateKey, seatRow]

	orderDM   *storage.DiskManager
	orderBPM  *storage.BufferPool
	orderTree *index.BTree[orderKey, orderRecord]

	pendingDM   *storage.DiskManager
	pendingBPM  *storage.BufferPool
	pendingTree *index.BTree[pendingKey, pendingRecord]

	stationDM   *storage.DiskManager
	stationBPM  *storage.BufferPool
	stationTree *index.BTree[stationKey, stationRecord]

	byTrainDM   *storage.DiskManager
	byTrainBPM  *storage.BufferPool
	byTrainTree *index.BTree[byTrainKey, stationRecord]

	seq atomic.Int64
}

// Paths groups the five flat files this store owns, one per index.
type Paths struct {
	SeatDB, OrderDB, PendingDB, StationDB, ByTrainDB string
}

// Open creates or reopens every index backing the ticket domain.
func Open(p Paths, bufferPoolSize, replacerK, leafMax, internalMax int) (*Store, error) {
	s := &Store{}
	var err error

	if s.seatDM, s.seatBPM, s.seatTree, err = openTree(p.SeatDB, bufferPoolSize, replacerK, leafMax, internalMax,
		"seat_db", cmpTrainDate, degCmpTrainDate, trainDateCodec, seatRowCodec{}); err != nil {
		return nil, err
	}
	if s.orderDM, s.orderBPM, s.orderTree, err = openTree(p.OrderDB, bufferPoolSize, replacerK, leafMax, internalMax,
		"order_db", cmpOrderKey, degCmpOrderKey, orderKeyCodec, orderRecordCodec{}); err != nil {
		return nil, err
	}
	if s.pendingDM, s.pendingBPM, s.pendingTree, err = openTree(p.PendingDB, bufferPoolSize, replacerK, leafMax, internalMax,
		"pending_db", cmpPendingKey, degCmpPendingKey, pendingKeyCodec, pendingRecordCodec{}); err != nil {
		return nil, err
	}
	if s.stationDM, s.stationBPM, s.stationTree, err = openTree(p.StationDB, bufferPoolSize, replacerK, leafMax, internalMax,
		"station_db", cmpStationKey, degCmpStationKey, stationKeyCodec, stationRecordCodec{}); err != nil {
		return nil, err
	}
	if s.byTrainDM, s.byTrainBPM, s.byTrainTree, err = openTree(p.ByTrainDB, bufferPoolSize, replacerK, leafMax, internalMax,
		"by_train_db", cmpByTrainKey, degCmpByTrainKey, byTrainKeyCodec, stationRecordCodec{}); err != nil {
		return nil, err
	}
	return s, nil
}

func openTree[K any, V any](path string, bufferPoolSize, replacerK, leafMax, internalMax int, name string, cmp, degCmp func(K, K) int, kc index.KeyCodec[K], vc index.ValueCodec[V]) (*storage.DiskManager, *storage.BufferPool, *index.BTree[K, V], error) {
	dm, err := storage.NewDiskManager(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ticketdb: open %s: %w", name, err)
	}
	bpm := storage.NewBufferPool(bufferPoolSize, dm, replacerK)
	var header storage.PageID
	if dm.NumPages() == 0 {
		header = bpm.NewPage()
	}
	tree, err := index.Open[K, V](name, header, bpm, cmp, degCmp, kc, vc, leafMax, internalMax)
	if err != nil {
		dm.Close()
		return nil, nil, nil, err
	}
	return dm, bpm, tree, nil
}

// Close persists and releases every backing file.
func (s *Store) Close() error {
	trees := []interface {
		Close()
	}{s.seatTree, s.orderTree, s.pendingTree, s.stationTree, s.byTrainTree}
	for _, t := range trees {
		t.Close()
	}
	dms := []*storage.DiskManager{s.seatDM, s.orderDM, s.pendingDM, s.stationDM, s.byTrainDM}
	var firstErr error
	for _, dm := range dms {
		if err := dm.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// InitializeSeatInventory implements pkg/train.SeatService.
func (s *Store) InitializeSeatInventory(trainID string, stationNum int, seatNum int32, saleBegin, saleEnd int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var row seatRow
	row.stationNum = int32(stationNum)
	for i := 0; i < stationNum-1; i++ {
		row.seats[i] = seatNum
	}
	for d := saleBegin; d <= saleEnd; d++ {
		s.seatTree.Insert(trainDateKey{First: trainID, Second: d}, row)
	}
	return nil
}

// RegisterStations implements pkg/train.SeatService.
func (s *Store) RegisterStations(trainID string, stations []string, prices, travelTimes, stopoverTimes []int32, startTime int32, saleBegin, saleEnd int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cumPrice := int32(0)
	cumTime := startTime
	for i, station := range stations {
		rec := stationRecord{
			station:       station,
			trainID:       trainID,
			stationIndex:  int32(i),
			price:         cumPrice,
			saleDateBegin: saleBegin,
			saleDateEnd:   saleEnd,
		}
		if i == 0 {
			rec.arrivingOffset = -1
		} else {
			cumTime += travelTimes[i-1]
			rec.arrivingOffset = cumTime
		}
		if i == len(stations)-1 {
			rec.leavingOffset = -1
		} else {
			if i > 0 {
				cumTime += stopoverTimes[i-1]
			}
			rec.leavingOffset = cumTime
		}
		if i > 0 {
			cumPrice += prices[i-1]
			rec.price = cumPrice
		}
		s.stationTree.Insert(stationKey{First: station, Second: trainID}, rec)
		s.byTrainTree.Insert(byTrainKey{First: trainID, Second: int32(i)}, rec)
	}
	return nil
}

// SeatsRemaining implements pkg/train.SeatService.
func (s *Store) SeatsRemaining(trainID string, date int64) ([]int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []seatRow
	if !s.seatTree.GetValue(trainDateKey{First: trainID, Second: date}, &found) {
		return nil, false
	}
	row := found[0]
	return append([]int32(nil), row.seats[:row.stationNum-1]...), true
}

// minSeats returns the smallest remaining seat count across [fromIdx, toIdx).
func minSeats(row seatRow, fromIdx, toIdx int32) int32 {
	min := row.seats[fromIdx]
	for i := fromIdx + 1; i < toIdx; i++ {
		if row.seats[i] < min {
			min = row.seats[i]
		}
	}
	return min
}

func adjustSeats(row *seatRow, fromIdx, toIdx, delta int32) {
	for i := fromIdx; i < toIdx; i++ {
		row.seats[i] += delta
	}
}

func floorDiv(a, b int32) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return int64(q)
}

func ceilDivInt64(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}

// lookupStation returns the station record for (station, trainID), or
// false if the train does not stop there.
func (s *Store) lookupStation(station, trainID string) (stationRecord, bool) {
	var found []stationRecord
	if !s.stationTree.GetValue(stationKey{First: station, Second: trainID}, &found) {
		return stationRecord{}, false
	}
	return found[0], true
}

// BuyTicket purchases num seats for trainID between from and to,
// departing from on date. If capacity is short and queueIfFull is set,
// the order is queued instead of rejected.
func (s *Store) BuyTicket(username, trainID string, date int64, num int32, from, to string, queueIfFull bool) (orderID string, status Status, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromRec, ok := s.lookupStation(from, trainID)
	if !ok {
		return "", 0, ErrInvalidRoute
	}
	toRec, ok := s.lookupStation(to, trainID)
	if !ok || toRec.stationIndex <= fromRec.stationIndex {
		return "", 0, ErrInvalidRoute
	}

	trainDate := date - floorDiv(fromRec.leavingOffset, 1440)
	if trainDate < fromRec.saleDateBegin || trainDate > fromRec.saleDateEnd {
		return "", 0, ErrTrainNotReleased
	}

	var rows []seatRow
	if !s.seatTree.GetValue(trainDateKey{First: trainID, Second: trainDate}, &rows) {
		return "", 0, ErrTrainNotReleased
	}
	row := rows[0]

	id := uuid.NewString()
	price := toRec.price - fromRec.price
	rec := orderRecord{
		orderID:   id,
		trainID:   trainID,
		from:      from,
		to:        to,
		leaveDate: trainDate,
		price:     price,
		seatNum:   num,
		fromIdx:   fromRec.stationIndex,
		toIdx:     toRec.stationIndex,
		seq:       s.seq.Add(1),
	}

	if minSeats(row, fromRec.stationIndex, toRec.stationIndex) >= num {
		adjustSeats(&row, fromRec.stationIndex, toRec.stationIndex, -num)
		s.seatTree.Remove(trainDateKey{First: trainID, Second: trainDate})
		s.seatTree.Insert(trainDateKey{First: trainID, Second: trainDate}, row)
		rec.status = StatusSuccess
		s.orderTree.Insert(orderKey{First: username, Second: id}, rec)
		return id, StatusSuccess, nil
	}

	if !queueIfFull {
		return "", 0, ErrNotEnoughSeats
	}
	rec.status = StatusPending
	s.orderTree.Insert(orderKey{First: username, Second: id}, rec)
	s.pendingTree.Insert(pendingKey{First: trainDateKey{First: trainID, Second: trainDate}, Second: id}, pendingRecord{username: username, orderID: id, order: rec})
	return id, StatusPending, nil
}

// OrderView is the read-only projection QueryOrder returns.
type OrderView struct {
	OrderID string
	Status  Status
	TrainID string
	From, To string
	LeaveDate int64
	Price   int32
	SeatNum int32
}

// QueryOrder lists username's orders, most recent first.
func (s *Store) QueryOrder(username string) []OrderView {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []orderRecord
	s.orderTree.GetAllValue(orderKey{First: username}, &recs)
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	views := make([]OrderView, len(recs))
	for i, r := range recs {
		views[i] = OrderView{
			OrderID: r.orderID, Status: r.status, TrainID: r.trainID,
			From: r.from, To: r.to, LeaveDate: r.leaveDate, Price: r.price, SeatNum: r.seatNum,
		}
	}
	return views
}

// RefundTicket refunds the nth most recent order (n=1 meaning the most
// recent) of username, then attempts to satisfy pending orders for the
// same train/date in FIFO order as capacity frees up.
func (s *Store) RefundTicket(username string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []orderRecord
	s.orderTree.GetAllValue(orderKey{First: username}, &recs)
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	if n < 1 || n > len(recs) {
		return ErrOrderNotFound
	}
	target := recs[n-1]
	if target.status != StatusSuccess {
		return ErrOrderNotRefundable
	}

	var rows []seatRow
	s.seatTree.GetValue(trainDateKey{First: target.trainID, Second: target.leaveDate}, &rows)
	row := rows[0]
	adjustSeats(&row, target.fromIdx, target.toIdx, target.seatNum)

	target.status = StatusRefunded
	s.orderTree.Remove(orderKey{First: username, Second: target.orderID})
	s.orderTree.Insert(orderKey{First: username, Second: target.orderID}, target)

	s.drainPendingLocked(target.trainID, target.leaveDate, &row)
	s.seatTree.Remove(trainDateKey{First: target.trainID, Second: target.leaveDate})
	s.seatTree.Insert(trainDateKey{First: target.trainID, Second: target.leaveDate}, row)
	return nil
}

// drainPendingLocked satisfies queued orders for (trainID, date) in FIFO
// order as long as row has capacity for each. Called with s.mu held.
func (s *Store) drainPendingLocked(trainID string, date int64, row *seatRow) {
	var pending []pendingRecord
	s.pendingTree.GetAllValue(pendingKey{First: trainDateKey{First: trainID, Second: date}}, &pending)
	sort.Slice(pending, func(i, j int) bool { return pending[i].order.seq < pending[j].order.seq })

	for _, p := range pending {
		if minSeats(*row, p.order.fromIdx, p.order.toIdx) < p.order.seatNum {
			continue
		}
		adjustSeats(row, p.order.fromIdx, p.order.toIdx, -p.order.seatNum)
		s.pendingTree.Remove(pendingKey{First: trainDateKey{First: trainID, Second: date}, Second: p.orderID})

		p.order.status = StatusSuccess
		s.orderTree.Remove(orderKey{First: p.username, Second: p.orderID})
		s.orderTree.Insert(orderKey{First: p.username, Second: p.orderID}, p.order)
	}
}

// RouteQuote is one direct-train candidate for QueryTicket.
type RouteQuote struct {
	TrainID        string
	LeaveDate      int64
	LeaveOffset    int32
	ArriveOffset   int32
	Price          int32
	SeatsAvailable int32
}

// QueryTicket lists every released train running directly from from to
// to on date (the day the passenger departs from), sorted by travel time
// or price.
func (s *Store) QueryTicket(from, to string, date int64, byPrice bool) []RouteQuote {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fromRecs, toRecs []stationRecord
	s.stationTree.GetAllValue(stationKey{First: from}, &fromRecs)
	s.stationTree.GetAllValue(stationKey{First: to}, &toRecs)

	toByTrain := make(map[string]stationRecord, len(toRecs))
	for _, r := range toRecs {
		toByTrain[r.trainID] = r
	}

	var quotes []RouteQuote
	for _, fr := range fromRecs {
		tr, ok := toByTrain[fr.trainID]
		if !ok || tr.stationIndex <= fr.stationIndex {
			continue
		}
		trainDate := date - floorDiv(fr.leavingOffset, 1440)
		if trainDate < fr.saleDateBegin || trainDate > fr.saleDateEnd {
			continue
		}
		var rows []seatRow
		if !s.seatTree.GetValue(trainDateKey{First: fr.trainID, Second: trainDate}, &rows) {
			continue
		}
		quotes = append(quotes, RouteQuote{
			TrainID:        fr.trainID,
			LeaveDate:      trainDate,
			LeaveOffset:    fr.leavingOffset,
			ArriveOffset:   tr.arrivingOffset,
			Price:          tr.price - fr.price,
			SeatsAvailable: minSeats(rows[0], fr.stationIndex, tr.stationIndex),
		})
	}

	sort.Slice(quotes, func(i, j int) bool {
		if byPrice {
			return quotes[i].Price < quotes[j].Price
		}
		return quotes[i].ArriveOffset-quotes[i].LeaveOffset < quotes[j].ArriveOffset-quotes[j].LeaveOffset
	})
	return quotes
}

// TransferQuote is a two-train itinerary found by QueryTransfer.
type TransferQuote struct {
	FirstTrainID, SecondTrainID string
	TransferStation             string
	FirstLeaveDate              int64
	SecondLeaveDate             int64
	TotalPrice                  int32
	TotalMinutes                int32
}

// QueryTransfer finds the best one-transfer itinerary from from to to on
// date, joining the depart-station index against the arrive-station
// index through a shared intermediate stop: for every station a direct
// "from" train passes through after from, it looks up every other train
// stopping there and checks whether that train continues on to to. This
// is bounded by (candidate trains through from) * (stops per train), not
// a scan of the whole station catalogue.
func (s *Store) QueryTransfer(from, to string, date int64, byPrice bool) (*TransferQuote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fromRecs, toRecs []stationRecord
	s.stationTree.GetAllValue(stationKey{First: from}, &fromRecs)
	s.stationTree.GetAllValue(stationKey{First: to}, &toRecs)

	toByTrain := make(map[string]stationRecord, len(toRecs))
	for _, r := range toRecs {
		toByTrain[r.trainID] = r
	}

	var best *TransferQuote
	for _, fr := range fromRecs {
		firstDate := date - floorDiv(fr.leavingOffset, 1440)
		if firstDate < fr.saleDateBegin || firstDate > fr.saleDateEnd {
			continue
		}
		var stopsA []stationRecord
		s.byTrainTree.GetAllValue(byTrainKey{First: fr.trainID}, &stopsA)
		for _, mid := range stopsA {
			if mid.stationIndex <= fr.stationIndex {
				continue
			}
			var midCandidates []stationRecord
			s.stationTree.GetAllValue(stationKey{First: mid.station}, &midCandidates)
			for _, midRec := range midCandidates {
				if midRec.trainID == fr.trainID {
					continue
				}
				toRec, ok := toByTrain[midRec.trainID]
				if !ok || toRec.stationIndex <= midRec.stationIndex {
					continue
				}
				arriveAtMid := firstDate*1440 + int64(mid.arrivingOffset)
				// Earliest origin day for train B whose departure from mid
				// is on or after the transfer's arrival there.
				secondDate := ceilDivInt64(arriveAtMid-int64(midRec.leavingOffset), 1440)
				if secondDate < midRec.saleDateBegin || secondDate > midRec.saleDateEnd {
					continue
				}
				arriveAtTo := secondDate*1440 + int64(toRec.arrivingOffset)

				quote := &TransferQuote{
					FirstTrainID: fr.trainID, SecondTrainID: midRec.trainID, TransferStation: mid.station,
					FirstLeaveDate: firstDate, SecondLeaveDate: secondDate,
					TotalPrice:   (mid.price - fr.price) + (toRec.price - midRec.price),
					TotalMinutes: int32(arriveAtTo - (firstDate*1440 + int64(fr.leavingOffset))),
				}
				if best == nil || better(quote, best, byPrice) {
					best = quote
				}
			}
		}
	}
	return best, best != nil
}

func better(a, b *TransferQuote, byPrice bool) bool {
	if byPrice {
		if a.TotalPrice != b.TotalPrice {
			return a.TotalPrice < b.TotalPrice
		}
		return a.TotalMinutes < b.TotalMinutes
	}
	if a.TotalMinutes != b.TotalMinutes {
		return a.TotalMinutes < b.TotalMinutes
	}
	return a.TotalPrice < b.TotalPrice
}
