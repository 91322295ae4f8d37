package train

// SeatService is the fan-out a train's release announces to the ticket
// domain: per-date seat inventory gets created, and the train's stations
// get indexed for QueryTicket/QueryTransfer. Defined here (the consumer)
// rather than in pkg/ticket so pkg/train never imports pkg/ticket —
// pkg/ticket implements this interface instead.
type SeatService interface {
	InitializeSeatInventory(trainID string, stationNum int, seatNum int32, saleBegin, saleEnd int64) error
	RegisterStations(trainID string, stations []string, prices []int32, travelTimes, stopoverTimes []int32, startTime int32, saleBegin, saleEnd int64) error
	SeatsRemaining(trainID string, date int64) ([]int32, bool)
}
