package dispatcher

import (
	"strconv"
	"strings"
)

// parseFlags walks the "-<flag> <value>" pairs that follow a command
// name, mirroring the original management layer's flag switch: any
// token that isn't a two-character "-x" flag is ignored rather than
// rejected, so a malformed line degrades gracefully instead of
// aborting the whole command loop.
func parseFlags(args []string) map[byte]string {
	flags := make(map[byte]string, len(args)/2)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if len(tok) == 2 && tok[0] == '-' && i+1 < len(args) {
			flags[tok[1]] = args[i+1]
			i++
		}
	}
	return flags
}

// parseDate converts a "MM-DD" string into a day number over a June
// 1 - August 31 sale season, the window the original schedule data
// assumes. Returns false if month/day don't parse.
func parseDate(s string) (int64, bool) {
	if len(s) != 5 || s[2] != '-' {
		return 0, false
	}
	month, err1 := strconv.Atoi(s[0:2])
	day, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	switch month {
	case 6:
		return int64(day), true
	case 7:
		return int64(day + 30), true
	case 8:
		return int64(day + 61), true
	}
	return 0, false
}

// parseTime converts an "HH:MM" string into minutes past midnight.
func parseTime(s string) (int32, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	hour, err1 := strconv.Atoi(s[0:2])
	minute, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return int32(hour*60 + minute), true
}

// splitInts parses a "|"-separated list of integers. An empty string
// or the original format's "_" placeholder (used when a train has too
// few stations to carry stopover times) yields no values.
func splitInts(s string) ([]int32, bool) {
	if s == "" || s == "_" {
		return nil, true
	}
	parts := strings.Split(s, "|")
	out := make([]int32, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = int32(n)
	}
	return out, true
}

func splitStations(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}

func atoi32(s string, def int32) int32 {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return int32(n)
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
