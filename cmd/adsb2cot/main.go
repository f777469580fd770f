// The adsb2cot daemon attaches to a socket that writes out SBS formatted
// ADS-B messages, aggregates together fields from different messages into
// per-aircraft records, and re-transmits each aircraft's state as a
// Cursor-on-Target event over UDP whenever a position report arrives. No
// special software or plugins needed on the mobile terminals.
package main

// go build github.com/nconder/adsb2cot/cmd/adsb2cot
// $ adsb2cot -h=southpi:30003 -v=1
// ... maybe also: -config=adsb2cot.yaml -topic=cot-mirror

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/nconder/adsb2cot/config"
	"github.com/nconder/adsb2cot/cot"
	"github.com/nconder/adsb2cot/cotpub"
	"github.com/nconder/adsb2cot/feed"
	"github.com/nconder/adsb2cot/registry"
)

var Log *log.Logger

var fConfigPath string
var fAdsbAddr string
var fCotAddr string
var fPubsubTopic string
var fVerbose int

func init() {
	pflag.StringVarP(&fConfigPath, "config", "c", "", "path to YAML config file")
	pflag.StringVarP(&fAdsbAddr, "host", "h", "", "host:port of dump1090-box:30003 (overrides config)")
	pflag.StringVar(&fCotAddr, "cot", "", "host:port of the CoT network (overrides config)")
	pflag.StringVar(&fPubsubTopic, "topic", "",
		"pubsub topic to mirror events to (overrides config; empty for no mirror)")
	pflag.IntVarP(&fVerbose, "verbose", "v", 0, "how verbose to get")
	pflag.Parse()

	Log = log.New(os.Stdout, "", log.Ldate|log.Ltime) //|log.Lshortfile)
}

func addSIGINTHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func(sig <-chan os.Signal) {
		<-sig
		Log.Printf("(SIGINT received)\n")
		cancel()
	}(c)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	addSIGINTHandler(cancel)

	cfg, err := config.Load(fConfigPath)
	if err != nil {
		Log.Fatalf("%v", err)
	}

	adsbAddr := cfg.AdsbAddr()
	if fAdsbAddr != "" {
		adsbAddr = fAdsbAddr
	}
	cotAddr := cfg.CotAddr()
	if fCotAddr != "" {
		cotAddr = fCotAddr
	}
	topic := cfg.Pubsub.Topic
	if fPubsubTopic != "" {
		topic = fPubsubTopic
	}

	enc := cot.NewEncoder()
	enc.TTL = cfg.TTL()

	sender := cot.NewSender(cotAddr)
	if n := cfg.Cot.MaxEventsPerSecond; n > 0 {
		sender.Limiter = rate.NewLimiter(rate.Limit(n), n)
	}

	sinks := []feed.Sink{sender}
	if topic != "" {
		pub, err := cotpub.New(ctx, cfg.Pubsub.Project, topic)
		if err != nil {
			Log.Fatalf("%v", err)
		}
		pub.Log = Log
		defer pub.Close()
		sinks = append(sinks, pub)
		Log.Printf("(mirroring events to pubsub topic %q)\n", topic)
	}

	p := &feed.Processor{
		Registry: registry.New(),
		Encoder:  enc,
		Sinks:    sinks,
		Log:      Log,
		Verbose:  fVerbose,
	}

	if age := cfg.SweepAfter(); age > 0 {
		p.StartSweeper(ctx, age)
		Log.Printf("(sweeping aircraft quiet for over %s)\n", age)
	}

	conn, err := net.Dial("tcp", adsbAddr)
	if err != nil {
		Log.Fatalf("connect '%s': %v", adsbAddr, err)
	}
	defer conn.Close()

	// A SIGINT has to pop the blocking read, not just flip the context.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	Log.Printf("adsb2cot running, %s -> udp %s", adsbAddr, cotAddr)

	if err := p.Run(ctx, conn); err != nil && !isShutdown(err) {
		Log.Fatalf("feed died: %v", err)
	}

	Log.Print("Final clean shutdown")
}

func isShutdown(err error) bool {
	return err == context.Canceled ||
		strings.Contains(err.Error(), "use of closed network connection")
}
