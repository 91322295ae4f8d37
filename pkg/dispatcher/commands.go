package dispatcher

import (
	"fmt"
	"strings"

	"github.com/railhub/ticketdb/pkg/ticket"
	"github.com/railhub/ticketdb/pkg/train"
	"github.com/railhub/ticketdb/pkg/user"
)

const fail = "-1"

func (d *Dispatcher) cmdAddUser(f map[byte]string) (string, error) {
	p := user.Profile{
		Username:  f['u'],
		Password:  f['p'],
		Name:      f['n'],
		MailAddr:  f['m'],
		Privilege: atoi32(f['g'], 0),
	}
	if err := d.users.AddUser(f['c'], p); err != nil {
		return fail, nil
	}
	return "0", nil
}

func (d *Dispatcher) cmdLogin(f map[byte]string) (string, error) {
	if err := d.users.Login(f['u'], f['p']); err != nil {
		return fail, nil
	}
	return "0", nil
}

func (d *Dispatcher) cmdLogout(f map[byte]string) (string, error) {
	if err := d.users.Logout(f['u']); err != nil {
		return fail, nil
	}
	return "0", nil
}

func formatProfile(info user.Info) string {
	return fmt.Sprintf("%s %s %s %d", info.Username, info.Name, info.MailAddr, info.Privilege)
}

func (d *Dispatcher) cmdQueryProfile(f map[byte]string) (string, error) {
	info, err := d.users.QueryProfile(f['c'], f['u'])
	if err != nil {
		return fail, nil
	}
	return formatProfile(info), nil
}

func (d *Dispatcher) cmdModifyProfile(f map[byte]string) (string, error) {
	u := user.ProfileUpdate{Username: f['u']}
	if p, ok := f['p']; ok {
		u.Password = &p
	}
	if n, ok := f['n']; ok {
		u.Name = &n
	}
	if m, ok := f['m']; ok {
		u.MailAddr = &m
	}
	if g, ok := f['g']; ok {
		priv := atoi32(g, 0)
		u.Privilege = &priv
	}
	info, err := d.users.ModifyProfile(f['c'], u)
	if err != nil {
		return fail, nil
	}
	return formatProfile(info), nil
}

func (d *Dispatcher) cmdAddTrain(f map[byte]string) (string, error) {
	stationNum := atoi(f['n'], 0)
	startTime, ok := parseTime(f['x'])
	if !ok {
		return fail, nil
	}
	prices, ok := splitInts(f['p'])
	if !ok {
		return fail, nil
	}
	travelTimes, ok := splitInts(f['t'])
	if !ok {
		return fail, nil
	}
	stopoverTimes, ok := splitInts(f['o'])
	if !ok {
		return fail, nil
	}
	dateRange := strings.Split(f['d'], "|")
	if len(dateRange) != 2 {
		return fail, nil
	}
	begin, ok1 := parseDate(dateRange[0])
	end, ok2 := parseDate(dateRange[1])
	if !ok1 || !ok2 {
		return fail, nil
	}
	var typ byte
	if len(f['y']) > 0 {
		typ = f['y'][0]
	}

	info := train.Info{
		ID:            f['i'],
		Name:          f['i'],
		StationNum:    stationNum,
		SeatNum:       atoi32(f['m'], 0),
		Stations:      splitStations(f['s']),
		Prices:        prices,
		StartTime:     startTime,
		TravelTimes:   travelTimes,
		StopoverTimes: stopoverTimes,
		SaleDateBegin: begin,
		SaleDateEnd:   end,
		Type:          typ,
	}
	if err := d.trains.AddTrain(info); err != nil {
		return fail, nil
	}
	return "0", nil
}

func (d *Dispatcher) cmdDeleteTrain(f map[byte]string) (string, error) {
	if err := d.trains.DeleteTrain(f['i']); err != nil {
		return fail, nil
	}
	return "0", nil
}

func (d *Dispatcher) cmdReleaseTrain(f map[byte]string) (string, error) {
	if err := d.trains.ReleaseTrain(f['i']); err != nil {
		return fail, nil
	}
	return "0", nil
}

func (d *Dispatcher) cmdQueryTrain(f map[byte]string) (string, error) {
	date, ok := parseDate(f['d'])
	if !ok {
		return fail, nil
	}
	results, err := d.trains.QueryTrain(f['i'], date)
	if err != nil {
		return fail, nil
	}
	rows := make([]string, len(results))
	for i, r := range results {
		rows[i] = fmt.Sprintf("%s %d %d %d %d", r.Station, r.ArrivingOffset, r.LeavingOffset, r.Price, r.SeatsRemaining)
	}
	return strings.Join(rows, "; "), nil
}

func (d *Dispatcher) cmdBuyTicket(f map[byte]string) (string, error) {
	date, ok := parseDate(f['d'])
	if !ok {
		return fail, nil
	}
	num := atoi32(f['n'], 0)
	queueIfFull := f['q'] == "true"

	orderID, status, err := d.tickets.BuyTicket(f['u'], f['i'], date, num, f['f'], f['t'], queueIfFull)
	if err != nil {
		return fail, nil
	}
	if status == ticket.StatusPending {
		return "queue", nil
	}
	return orderID, nil
}

func (d *Dispatcher) cmdQueryOrder(f map[byte]string) (string, error) {
	orders := d.tickets.QueryOrder(f['u'])
	if len(orders) == 0 {
		return fail, nil
	}
	rows := make([]string, len(orders))
	for i, o := range orders {
		rows[i] = fmt.Sprintf("%s %s %s %s %d %d %d", statusName(o.Status), o.TrainID, o.From, o.To, o.LeaveDate, o.Price, o.SeatNum)
	}
	return strings.Join(rows, "; "), nil
}

func (d *Dispatcher) cmdRefundTicket(f map[byte]string) (string, error) {
	n := atoi(f['n'], 1)
	if err := d.tickets.RefundTicket(f['u'], n); err != nil {
		return fail, nil
	}
	return "0", nil
}

func (d *Dispatcher) cmdQueryTicket(f map[byte]string) (string, error) {
	date, ok := parseDate(f['d'])
	if !ok {
		return fail, nil
	}
	byPrice := f['p'] == "cost"
	quotes := d.tickets.QueryTicket(f['s'], f['t'], date, byPrice)
	if len(quotes) == 0 {
		return fail, nil
	}
	rows := make([]string, len(quotes))
	for i, q := range quotes {
		rows[i] = fmt.Sprintf("%s %d %d %d %d", q.TrainID, q.LeaveDate, q.Price, q.ArriveOffset-q.LeaveOffset, q.SeatsAvailable)
	}
	return strings.Join(rows, "; "), nil
}

func (d *Dispatcher) cmdQueryTransfer(f map[byte]string) (string, error) {
	date, ok := parseDate(f['d'])
	if !ok {
		return fail, nil
	}
	byPrice := f['p'] == "cost"
	q, ok := d.tickets.QueryTransfer(f['s'], f['t'], date, byPrice)
	if !ok {
		return fail, nil
	}
	return fmt.Sprintf("%s %d %s %s %d %d", q.FirstTrainID, q.FirstLeaveDate, q.TransferStation, q.SecondTrainID, q.TotalPrice, q.TotalMinutes), nil
}

func statusName(s ticket.Status) string {
	switch s {
	case ticket.StatusSuccess:
		return "success"
	case ticket.StatusPending:
		return "pending"
	case ticket.StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}
