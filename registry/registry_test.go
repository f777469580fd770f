package registry

import (
	"testing"
	"time"

	"github.com/nconder/adsb2cot/sbs"
)

func apply(t *testing.T, r *Registry, line string) Snapshot {
	t.Helper()
	up, err := sbs.ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v", line, err)
	}
	return r.ApplyUpdate(up.Icao, up)
}

func TestNewAircraftGetsPlaceholderCallsign(t *testing.T) {
	r := New()
	snap := apply(t, r, "MSG,3,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,5000,,,40.0,-73.0,,,,,,")

	if snap.Icao != "ABC123" {
		t.Errorf("expected identity ABC123, got %q", snap.Icao)
	}
	if snap.Callsign != "xABC123" {
		t.Errorf("expected placeholder xABC123, got %q", snap.Callsign)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 aircraft, got %d", r.Len())
	}
}

func TestCallsignUpdateIsIdempotent(t *testing.T) {
	r := New()
	ident := "MSG,1,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,UAL123  ,,,,,,,,,,,"

	first := apply(t, r, ident)
	second := apply(t, r, ident)

	if first.Callsign != "UAL123  " {
		t.Errorf("expected verbatim callsign with padding, got %q", first.Callsign)
	}
	if second.Callsign != first.Callsign {
		t.Errorf("applying the same ident twice changed the callsign: %q vs %q",
			first.Callsign, second.Callsign)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 aircraft, got %d", r.Len())
	}
}

func TestAltitudeGuard(t *testing.T) {
	r := New()
	apply(t, r, "MSG,3,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,3500,,,40.0,-73.0,,,,,,")

	// Zero and absent altitudes must not stomp a known one.
	snap := apply(t, r, "MSG,3,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,0,,,40.1,-73.1,,,,,,")
	if snap.Altitude != "3500" {
		t.Errorf("zero altitude overwrote known value: got %q", snap.Altitude)
	}

	snap = apply(t, r, "MSG,3,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,,,,40.2,-73.2,,,,,,")
	if snap.Altitude != "3500" {
		t.Errorf("absent altitude overwrote known value: got %q", snap.Altitude)
	}

	// But the position itself did move.
	if snap.Lat != "40.2" || snap.Lon != "-73.2" {
		t.Errorf("position should track the latest update, got %q/%q", snap.Lat, snap.Lon)
	}
}

func TestFieldsAccumulateAcrossKinds(t *testing.T) {
	r := New()
	apply(t, r, "MSG,1,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,UAL123,,,,,,,,,,,")
	apply(t, r, "MSG,4,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,,300,315,,,64,,,,,")
	snap := apply(t, r, "MSG,3,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,5000,,,40.0,-73.0,,,,,,")

	if snap.Callsign != "UAL123" || snap.GroundSpeed != "300" ||
		snap.GroundTrack != "315" || snap.VerticalRate != "64" ||
		snap.Altitude != "5000" || !snap.HasPosition() {
		t.Errorf("snapshot didn't accumulate all kinds: %+v", snap)
	}
	if !snap.HasMotion() {
		t.Errorf("expected motion known after velocity message")
	}
}

func TestIdentDoesNotClearPosition(t *testing.T) {
	r := New()
	apply(t, r, "MSG,3,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,5000,,,40.0,-73.0,,,,,,")
	snap := apply(t, r, "MSG,1,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,UAL123,,,,,,,,,,,")

	if !snap.HasPosition() || snap.Altitude != "5000" {
		t.Errorf("ident update cleared position state: %+v", snap)
	}
}

func TestEmptyCallsignDoesNotClear(t *testing.T) {
	r := New()
	apply(t, r, "MSG,1,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,UAL123,,,,,,,,,,,")
	snap := apply(t, r, "MSG,1,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,,,,,,,,,,,")

	if snap.Callsign != "UAL123" {
		t.Errorf("empty callsign field cleared the known one: %q", snap.Callsign)
	}
}

func TestIdentityIsCaseInsensitive(t *testing.T) {
	r := New()
	apply(t, r, "MSG,1,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,UAL123,,,,,,,,,,,")
	snap := apply(t, r, "MSG,1,1,1,abc123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,,,,,,,,,,,")

	if r.Len() != 1 {
		t.Errorf("case variants made %d records, want 1", r.Len())
	}
	if snap.Icao != "ABC123" {
		t.Errorf("identity should keep its first-seen form, got %q", snap.Icao)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New()
	snap := apply(t, r, "MSG,1,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,UAL123,,,,,,,,,,,")

	snap.Callsign = "SCRIBBLE"

	again := apply(t, r, "MSG,5,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,,,,,,,,,,,")
	if again.Callsign != "UAL123" {
		t.Errorf("mutating a snapshot leaked into the registry: %q", again.Callsign)
	}
}

func TestUnclassifiedUpdatesTouchLastSeenOnly(t *testing.T) {
	r := New()
	snap := apply(t, r, "MSG,8,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,,,,,,,,,,,")

	if r.Len() != 1 {
		t.Errorf("unclassified update should still create the record")
	}
	if snap.LastSeen.IsZero() {
		t.Errorf("LastSeen not set")
	}
	if snap.HasPosition() || snap.HasAltitude() || snap.HasMotion() {
		t.Errorf("unclassified update should merge no fields: %+v", snap)
	}
}

func TestMarkSent(t *testing.T) {
	r := New()
	apply(t, r, "MSG,3,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,5000,,,40.0,-73.0,,,,,,")

	sent := time.Now()
	r.MarkSent("ABC123", sent)

	snap := apply(t, r, "MSG,8,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,,,,,,,,,,,")
	if !snap.LastSent.Equal(sent) {
		t.Errorf("expected LastSent %v, got %v", sent, snap.LastSent)
	}
}

func TestSweepOlderThan(t *testing.T) {
	r := New()
	apply(t, r, "MSG,3,1,1,ABC123,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,5000,,,40.0,-73.0,,,,,,")
	apply(t, r, "MSG,3,1,1,DEF456,1,2020/01/01,00:00:00,2020/01/01,00:00:00,,6000,,,41.0,-74.0,,,,,,")

	if n := r.SweepOlderThan(time.Hour); n != 0 {
		t.Errorf("nothing is an hour old yet, but swept %d", n)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 aircraft, got %d", r.Len())
	}

	time.Sleep(5 * time.Millisecond)
	if n := r.SweepOlderThan(time.Millisecond); n != 2 {
		t.Errorf("expected to sweep 2, got %d", n)
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}
