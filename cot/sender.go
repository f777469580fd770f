package cot

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/time/rate"
)

// Sender pushes encoded events at a CoT destination over UDP, fire and
// forget. Each send dials its own socket, so nothing stays open between
// emissions; a multicast destination like 239.2.3.1:6969 works the same as
// a unicast one.
type Sender struct {
	Addr    string        // host:port of the CoT network
	Limiter *rate.Limiter // optional ceiling on output rate; nil means none
}

func NewSender(addr string) *Sender {
	return &Sender{Addr: addr}
}

// Send transmits one encoded event. The limiter, when set, waits rather
// than drops, so every triggered emission still goes out.
func (s *Sender) Send(ctx context.Context, b []byte) error {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	conn, err := net.Dial("udp", s.Addr)
	if err != nil {
		return fmt.Errorf("cot: dial %s: %w", s.Addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("cot: send to %s: %w", s.Addr, err)
	}
	return nil
}
