// Package cot renders aircraft state snapshots as Cursor-on-Target (CoT)
// event XML, ready for transmission to a TAK network. Encoding is a pure
// transform: same snapshot plus same clock always yields the same bytes.
package cot

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nconder/adsb2cot/registry"
)

const (
	// MS2525c: WAR.AIRTRK.CVL.FIXD -- "fixed wing" keeps the TAK icons simple
	DefaultType = "a-f-A-C-F"

	// How the coordinates were generated; presumably GPS.
	DefaultHow = "m-g"

	// CoT UIDs should be collision-proof yet deterministic (same aircraft,
	// same UID, on every system). Fixed 10-byte root here, the node part
	// varies as "-1ca000XXXXXX" where XXXXXX is the 24-bit ICAO hex.
	DefaultUIDRoot = "7ea452c5-a1ec-ad5b-a7ac"

	// Validity period of events, for the "stale" attribute.
	DefaultTTL = 120 * time.Second

	timeFormat = "2006-01-02T15:04:05Z"

	// CoT's "unspecified" sentinel for circular/linear error.
	errUnspec = "9999999.0"

	xmlHeader = `<?xml version="1.0" standalone="yes"?>`
)

// MissingFieldError reports a snapshot that isn't complete enough to encode.
// The caller should skip this emission and keep processing.
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("cot: snapshot missing %s", e.Field)
}

// {{{ event schema

type event struct {
	XMLName xml.Name `xml:"event"`
	Version string   `xml:"version,attr"`
	UID     string   `xml:"uid,attr"`
	Time    string   `xml:"time,attr"`
	Start   string   `xml:"start,attr"`
	Stale   string   `xml:"stale,attr"`
	Type    string   `xml:"type,attr"`
	How     string   `xml:"how,attr"`
	Point   point    `xml:"point"`
	Detail  detail   `xml:"detail"`
}

type point struct {
	Lat string `xml:"lat,attr"`
	Lon string `xml:"lon,attr"`
	Hae string `xml:"hae,attr"`
	Ce  string `xml:"ce,attr"`
	Le  string `xml:"le,attr"`
}

type detail struct {
	Track   *track  `xml:"track,omitempty"`
	Contact contact `xml:"contact"`
	Remarks remarks `xml:"remarks"`
}

type track struct {
	Course string `xml:"course,attr"`
	Speed  string `xml:"speed,attr"`
}

type contact struct {
	Callsign string `xml:"callsign,attr"`
}

type remarks struct {
	Text string `xml:",chardata"`
}

// }}}

// Encoder holds the fixed parts of the output schema. The zero value is not
// usable; call NewEncoder.
type Encoder struct {
	Type    string
	How     string
	UIDRoot string
	TTL     time.Duration

	TimeNow func() time.Time // stubbed in tests; defaults to time.Now
}

func NewEncoder() *Encoder {
	return &Encoder{
		Type:    DefaultType,
		How:     DefaultHow,
		UIDRoot: DefaultUIDRoot,
		TTL:     DefaultTTL,
		TimeNow: time.Now,
	}
}

// UID derives the deterministic event identity for an ICAO hex address.
func (e *Encoder) UID(icao string) string {
	return e.UIDRoot + "-1ca0" + "00" + strings.ToLower(icao)
}

// Encode renders a snapshot as a CoT event document. The snapshot must know
// its identity, position, altitude and callsign; anything less comes back as
// a MissingFieldError rather than malformed output.
func (e *Encoder) Encode(s registry.Snapshot) ([]byte, error) {
	switch {
	case s.Icao == "":
		return nil, MissingFieldError{"aircraft identity"}
	case s.Lat == "":
		return nil, MissingFieldError{"latitude"}
	case s.Lon == "":
		return nil, MissingFieldError{"longitude"}
	case s.Callsign == "":
		return nil, MissingFieldError{"callsign"}
	}
	altFeet, err := strconv.Atoi(s.Altitude)
	if err != nil {
		return nil, MissingFieldError{"altitude"}
	}

	now := e.TimeNow().UTC()

	ev := event{
		Version: "2.0",
		UID:     e.UID(s.Icao),
		Time:    now.Format(timeFormat),
		Start:   now.Format(timeFormat),
		Stale:   now.Add(e.TTL).Format(timeFormat),
		Type:    e.Type,
		How:     e.How,
		Point: point{
			Lat: s.Lat,
			Lon: s.Lon,
			Hae: fmt.Sprintf("%.2f", 0.3048*float64(altFeet)), // ft -> m
			Ce:  errUnspec,
			Le:  errUnspec,
		},
		Detail: detail{
			Contact: contact{Callsign: s.Callsign},
			Remarks: remarks{Text: "ICAO:" + s.Icao},
		},
	}

	// Optional track block, only when we've heard both speed and course.
	if s.HasMotion() {
		if kts, err := strconv.Atoi(s.GroundSpeed); err == nil {
			ev.Detail.Track = &track{
				Course: s.GroundTrack,
				Speed:  fmt.Sprintf("%.4f", 0.5144*float64(kts)), // kts -> m/s
			}
		}
	}

	body, err := xml.Marshal(ev)
	if err != nil {
		return nil, err
	}

	return append([]byte(xmlHeader), body...), nil
}
