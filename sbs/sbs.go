// Package sbs parses SBS-1 "BaseStation" formatted CSV lines, as written by
// dump1090 on port 30003.
package sbs

// Field layout (0-indexed), per http://woodair.net/SBS/Article/Barebones42_Socket_Data.htm
//   0: "MSG"
//   1: transmission type (1-8)
//   4: ICAO hex identity
//  10: callsign          (type 1)
//  11: altitude, feet    (type 3)
//  12: ground speed, kts (type 4)
//  13: ground track, deg (type 4)
//  14: latitude          (type 3)
//  15: longitude         (type 3)
//  16: vertical rate     (type 4)

import (
	"errors"
	"strings"
)

// ErrShortLine means the line had too few fields to yield an aircraft
// identity. Routine with noisy feeds; callers should drop and move on.
var ErrShortLine = errors.New("sbs: line too short to carry an identity")

type Kind int

const (
	KindUnclassified Kind = iota // anything we don't track, incl. type codes > 4
	KindIdent                    // MSG,1 ES_IDENT_AND_CATEGORY
	KindPosition                 // MSG,3 ES_AIRBORNE_POS
	KindVelocity                 // MSG,4 ES_AIRBORNE_VEL
)

func (k Kind) String() string {
	switch k {
	case KindIdent:
		return "ident"
	case KindPosition:
		return "position"
	case KindVelocity:
		return "velocity"
	}
	return "unclassified"
}

// Update is the parsed view of one input line. Field values are kept as the
// raw strings found on the wire, so they can be re-emitted verbatim. An
// Update is consumed by the registry merge and then discarded.
type Update struct {
	Kind         Kind
	Icao         string // as found on the wire; registry normalizes case
	Callsign     string
	Altitude     string
	GroundSpeed  string
	GroundTrack  string
	VerticalRate string
	Lat          string
	Lon          string
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// ParseLine splits one SBS line into an Update. Lines with fewer than 5
// fields cannot carry an identity and come back as ErrShortLine.
func ParseLine(line string) (Update, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	if len(fields) < 5 {
		return Update{}, ErrShortLine
	}

	up := Update{Icao: fields[4]}
	if up.Icao == "" {
		return Update{}, ErrShortLine
	}

	switch fields[1] {
	case "1":
		up.Kind = KindIdent
		up.Callsign = field(fields, 10)

	case "3":
		up.Kind = KindPosition
		up.Lat = field(fields, 14)
		up.Lon = field(fields, 15)
		up.Altitude = field(fields, 11) // not always present; registry applies the >0 guard

	case "4":
		up.Kind = KindVelocity
		up.GroundSpeed = field(fields, 12)
		up.GroundTrack = field(fields, 13)
		up.VerticalRate = field(fields, 16)

	default:
		up.Kind = KindUnclassified
	}

	return up, nil
}
