// The pinger program checks that the boxes adsb2cot talks to are still
// reachable: the dump1090 receiver and the CoT destination. Prints one CSV
// row of round-trip millis, suitable for appending to a log from cron.
package main

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	fastping "github.com/tatsushid/go-fastping"
)

var fHosts []string
var fTimeout time.Duration

func init() {
	pflag.StringSliceVar(&fHosts, "hosts", []string{"127.0.0.1", "239.2.3.1"},
		"hosts to ping (feed box, CoT destination)")
	pflag.DurationVar(&fTimeout, "timeout", 10*time.Second, "give up after this long")
	pflag.Parse()
}

func main() {
	sort.Strings(fHosts)

	p := fastping.NewPinger()
	p.Network("udp")
	p.MaxRTT = fTimeout

	for _, host := range fHosts {
		ra, err := net.ResolveIPAddr("ip4:icmp", host)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		p.AddIPAddr(ra)
	}

	results := map[string]string{}

	p.OnRecv = func(addr *net.IPAddr, rtt time.Duration) {
		results[addr.String()] = fmt.Sprintf("%.0f", rtt.Seconds()*1000) // integer millis
	}

	if err := p.Run(); err != nil {
		fmt.Printf("p.Run failed with: %v", err)
	}

	strs := []string{time.Now().UTC().Format(time.RFC3339)}

	for _, host := range fHosts {
		strs = append(strs, host)
		if v, exists := results[host]; exists {
			strs = append(strs, fmt.Sprintf("%-7.7s", v))
		} else {
			strs = append(strs, "timeout")
		}
	}

	fmt.Printf(strings.Join(strs, ", ") + "\n")
}
