// Package feed runs the line-at-a-time pipeline: read an SBS line, merge it
// into the registry, and re-emit the aircraft's state as a CoT event when
// the line carried a position.
package feed

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/nconder/adsb2cot/cot"
	"github.com/nconder/adsb2cot/registry"
	"github.com/nconder/adsb2cot/sbs"
)

// Sink accepts one encoded event buffer for delivery. Delivery is fire and
// forget; the pipeline logs failures but never blocks on, or retries, a
// sink.
type Sink interface {
	Send(ctx context.Context, b []byte) error
}

type Processor struct {
	Registry *registry.Registry
	Encoder  *cot.Encoder
	Sinks    []Sink
	Log      *log.Logger
	Verbose  int // 0 quiet, 1 emissions, 2 every line
}

func (p *Processor) logf(format string, args ...interface{}) {
	if p.Log != nil {
		p.Log.Printf(format, args...)
	}
}

// ProcessLine handles one raw input line. Lines too short to name an
// aircraft are dropped silently; a snapshot that can't be encoded yet skips
// its emission. Neither stops the feed.
func (p *Processor) ProcessLine(ctx context.Context, line string) error {
	up, err := sbs.ParseLine(line)
	if err != nil {
		return nil // bad adsb line; routine, move on
	}

	snap := p.Registry.ApplyUpdate(up.Icao, up)

	if p.Verbose > 1 {
		p.logf("%s %s: %+v", snap.Icao, up.Kind, snap)
	}

	// Only airborne position messages trigger an emission; ident and
	// velocity messages just top up the record.
	if up.Kind != sbs.KindPosition {
		return nil
	}

	msg, err := p.Encoder.Encode(snap)
	if err != nil {
		var missing cot.MissingFieldError
		if errors.As(err, &missing) {
			if p.Verbose > 0 {
				p.logf("%s: not emitting yet: %v", snap.Icao, err)
			}
			return nil
		}
		return err
	}

	if p.Verbose > 0 {
		p.logf("CoT: %s", msg)
	}

	for _, sink := range p.Sinks {
		if err := sink.Send(ctx, msg); err != nil {
			p.logf("%s: sink err: %v", snap.Icao, err)
		}
	}

	p.Registry.MarkSent(snap.Icao, time.Now())

	return nil
}

// Run consumes the reader line by line until end of stream, a read error,
// or ctx cancellation. End of stream is a clean exit; restarting is the
// supervisor's business, not ours.
func (p *Processor) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.ProcessLine(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// StartSweeper evicts records quiet for longer than maxAge, every maxAge,
// until ctx is cancelled. Opt-in; without it records live forever, as the
// original did.
func (p *Processor) StartSweeper(ctx context.Context, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(maxAge)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := p.Registry.SweepOlderThan(maxAge); n > 0 && p.Verbose > 0 {
					p.logf("(swept %d quiet aircraft, %d remain)", n, p.Registry.Len())
				}
			}
		}
	}()
}
