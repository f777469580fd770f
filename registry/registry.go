// Package registry maintains a single, central snapshot of current aircraft
// status, built up incrementally from partial SBS updates.
package registry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nconder/adsb2cot/sbs"
)

// Aircraft is the mutable record for one tracked airframe. Fields arrive in
// different message subtypes, so most stay empty ("unknown") until the feed
// fills them in; a later update never clears a known field back to empty.
type Aircraft struct {
	Icao         string // 6-char hex as first received; keyed case-insensitively
	Callsign     string // placeholder "x"+Icao until a MSG,1 arrives
	Lat          string
	Lon          string
	Altitude     string // feet; only overwritten by values > 0
	GroundSpeed  string // knots
	GroundTrack  string // degrees
	VerticalRate string

	LastSeen time.Time
	LastSent time.Time
}

// {{{ Aircraft accessors

func (a *Aircraft) HasPosition() bool { return a.Lat != "" && a.Lon != "" }
func (a *Aircraft) HasAltitude() bool { return a.Altitude != "" }

// HasMotion gates the optional track block in the output; we need both the
// speed and the course.
func (a *Aircraft) HasMotion() bool { return a.GroundSpeed != "" && a.GroundTrack != "" }

// }}}

// Snapshot is a value-copy of a record, safe to hand to the encoder without
// aliasing the registry's mutable state.
type Snapshot = Aircraft

// Registry owns the identity->record map. Construct one at process start and
// pass it into the processing loop; there is no package-level instance.
type Registry struct {
	mu       sync.RWMutex
	aircraft map[string]*Aircraft
}

func New() *Registry {
	return &Registry{aircraft: make(map[string]*Aircraft)}
}

// {{{ r.ApplyUpdate

// ApplyUpdate merges one parsed update into the record for identity,
// creating the record if this is the first time we've heard from it, and
// returns a snapshot of the record's state after the merge. LastSeen is
// refreshed for every update kind, including unclassified ones.
//
// Callers must only pass a non-empty identity; lines that can't yield one
// are dropped before reaching the registry.
func (r *Registry) ApplyUpdate(identity string, up sbs.Update) Snapshot {
	id := strings.ToLower(identity)

	r.mu.Lock()
	defer r.mu.Unlock()

	ac, exists := r.aircraft[id]
	if !exists {
		ac = &Aircraft{
			Icao:     identity,
			Callsign: "x" + identity, // temporary label until a real callsign shows up
		}
		r.aircraft[id] = ac
	}

	switch up.Kind {
	case sbs.KindIdent:
		if up.Callsign != "" {
			ac.Callsign = up.Callsign // verbatim, trailing padding and all
		}

	case sbs.KindVelocity:
		if up.GroundSpeed != "" {
			ac.GroundSpeed = up.GroundSpeed
		}
		if up.GroundTrack != "" {
			ac.GroundTrack = up.GroundTrack
		}
		if up.VerticalRate != "" {
			ac.VerticalRate = up.VerticalRate
		}

	case sbs.KindPosition:
		if up.Lat != "" {
			ac.Lat = up.Lat
		}
		if up.Lon != "" {
			ac.Lon = up.Lon
		}
		// Altitude is often absent or zero on MSG,3; never let that
		// stomp a previously known altitude.
		if n, err := strconv.Atoi(up.Altitude); err == nil && n > 0 {
			ac.Altitude = up.Altitude
		}
	}

	ac.LastSeen = time.Now()

	return *ac
}

// }}}
// {{{ r.MarkSent

// MarkSent records that an event for identity went out at t.
func (r *Registry) MarkSent(identity string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ac, exists := r.aircraft[strings.ToLower(identity)]; exists {
		ac.LastSent = t
	}
}

// }}}
// {{{ r.Len

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.aircraft)
}

// }}}
// {{{ r.SweepOlderThan

// SweepOlderThan deletes records not heard from within maxAge, and returns
// how many went. By default records live for the life of the process; this
// is the opt-in memory bound for long sessions with high aircraft turnover.
func (r *Registry) SweepOlderThan(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, ac := range r.aircraft {
		if time.Since(ac.LastSeen) > maxAge {
			delete(r.aircraft, id)
			n++
		}
	}
	return n
}

// }}}

// {{{ r.String

func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := []string{}
	for k := range r.aircraft {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	str := ""
	for _, k := range keys {
		ac := r.aircraft[k]
		str += fmt.Sprintf(" %8.8s/%s (lastSeen:%7.1fs) : %6sft, %4sknots\n",
			ac.Callsign, ac.Icao,
			time.Since(ac.LastSeen).Seconds(),
			ac.Altitude, ac.GroundSpeed)
	}
	return str
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
