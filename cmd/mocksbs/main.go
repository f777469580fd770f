// The mocksbs program pretends to be dump1090: it listens on :30003 and
// streams SBS formatted messages for a single simulated aircraft drifting
// north. Handy for exercising adsb2cot without a radio.
package main

// go run main.go --delay=100ms   (will listen on localhost:30003)
// adsb2cot -h=localhost:30003 -v=1

import (
	"fmt"
	"net"
	"time"

	"github.com/skypies/geo"
	"github.com/spf13/pflag"
)

var fDelay time.Duration
var fIcao string

func init() {
	pflag.DurationVar(&fDelay, "delay", time.Second, "gap between position messages")
	pflag.StringVar(&fIcao, "icao", "A81BD0", "hex identity of the simulated aircraft")
	pflag.Parse()
}

// sbsLine builds one BaseStation CSV line of the given transmission type.
// Only the fields adsb2cot reads are populated; the rest stay empty, which
// is true to life for dump1090 output.
func sbsLine(msgType int, icao string, pos geo.Latlong) string {
	now := time.Now().UTC()
	d, t := now.Format("2006/01/02"), now.Format("15:04:05.000")

	f := make([]string, 22)
	f[0] = "MSG"
	f[1] = fmt.Sprintf("%d", msgType)
	f[2], f[3] = "1", "1"
	f[4] = icao
	f[5] = "1"
	f[6], f[7], f[8], f[9] = d, t, d, t

	switch msgType {
	case 1:
		f[10] = "MOCK123 "
	case 3:
		f[11] = "36000"
		f[14] = fmt.Sprintf("%.5f", pos.Lat)
		f[15] = fmt.Sprintf("%.5f", pos.Long)
	case 4:
		f[12] = "300"
		f[13] = "315"
		f[16] = "64"
	}

	line := f[0]
	for _, v := range f[1:] {
		line += "," + v
	}
	return line
}

func main() {
	fmt.Printf("(launching mock dump1090 on localhost:30003)\n")

	ln, err := net.Listen("tcp", "localhost:30003")
	if err != nil {
		panic(err)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			continue
		}
		fmt.Printf("(connection started)\n")

		pos := geo.Latlong{Lat: 36.0, Long: -122.0}

		// Prime the pump: a callsign, then velocity, then endless positions.
		conn.Write([]byte(sbsLine(1, fIcao, pos) + "\n"))
		conn.Write([]byte(sbsLine(4, fIcao, pos) + "\n"))

		for {
			pos.Lat += 0.01
			if _, err := conn.Write([]byte(sbsLine(3, fIcao, pos) + "\n")); err != nil {
				fmt.Printf("(connection ended)\n")
				break
			}
			time.Sleep(fDelay)
		}
		conn.Close()
	}
}
