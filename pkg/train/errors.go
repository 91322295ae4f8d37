package train

import "errors"

var (
	// ErrTrainExists is returned by AddTrain when the trainID is already
	// registered.
	ErrTrainExists = errors.New("ticketdb: train already exists")
	// ErrTrainNotFound is returned when a trainID has no catalogue entry.
	ErrTrainNotFound = errors.New("ticketdb: train not found")
	// ErrAlreadyReleased is returned by DeleteTrain/ReleaseTrain once a
	// train has already been released.
	ErrAlreadyReleased = errors.New("ticketdb: train already released")
	// ErrNotOnSale is returned by QueryTrain when the requested date falls
	// outside the train's sale window.
	ErrNotOnSale = errors.New("ticketdb: date outside train's sale window")
	// ErrTooManyStations is returned by AddTrain when the station count
	// exceeds maxStations.
	ErrTooManyStations = errors.New("ticketdb: too many stations for one train")
)
