package ticket

import "errors"

var (
	// ErrTrainNotReleased is returned when an operation needs a train's
	// seat inventory before ReleaseTrain has created it.
	ErrTrainNotReleased = errors.New("ticketdb: train not released")
	// ErrInvalidRoute is returned when from/to do not both appear, in
	// order, on the requested train.
	ErrInvalidRoute = errors.New("ticketdb: invalid route for train")
	// ErrNotEnoughSeats is returned by BuyTicket when capacity is short
	// and queuing was not requested.
	ErrNotEnoughSeats = errors.New("ticketdb: not enough seats")
	// ErrOrderNotFound is returned by RefundTicket when the requested
	// order (by position) does not exist.
	ErrOrderNotFound = errors.New("ticketdb: order not found")
	// ErrOrderNotRefundable is returned when refunding an order that is
	// not in the success state: already refunded, or still pending.
	ErrOrderNotRefundable = errors.New("ticketdb: order already refunded")
)
