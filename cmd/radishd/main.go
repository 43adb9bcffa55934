package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/mshaverdo/radish/acceptor"
	"github.com/mshaverdo/radish/config"
	"github.com/mshaverdo/radish/core"
	"github.com/mshaverdo/radish/dispatcher"
	"github.com/mshaverdo/radish/log"
	"github.com/mshaverdo/radish/snapshot"
)

func main() {
	cfg := config.Default()

	var quiet, verbose, veryVerbose bool

	flag.StringVar(&cfg.BindHost, "h", cfg.BindHost, "The listening host.")
	flag.IntVar(&cfg.BindPort, "p", cfg.BindPort, "The listening port.")
	flag.StringVar(&cfg.PdbFile, "f", cfg.PdbFile, "Snapshot file path.")
	flag.IntVar(&cfg.AsyncTime, "async-time", cfg.AsyncTime, "Background-save interval in seconds if any key changed.")
	flag.IntVar(&cfg.SecCount, "sec-count", cfg.SecCount, "Mutation count that triggers a background save within 1 second.")
	flag.IntVar(&cfg.MinCount, "min-count", cfg.MinCount, "Mutation count that triggers a background save within 1 minute.")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging.")
	flag.BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging.")
	flag.BoolVar(&quiet, "q", false, "Quiet logging. Totally silent.")
	flag.Parse()

	switch {
	case veryVerbose:
		log.SetLevel(log.DEBUG)
	case verbose:
		log.SetLevel(log.INFO)
	case quiet:
		log.SetLevel(-1)
	default:
		log.SetLevel(log.NOTICE)
	}

	keyspace := core.New()
	snap := snapshot.New(keyspace, cfg)

	if err := snap.Load(); err != nil {
		log.Critical(err.Error())
		os.Exit(1)
	}
	snap.StartPolicy()

	disp := dispatcher.New(keyspace, snap)
	acc := acceptor.New(cfg.BindHost, cfg.BindPort, disp)

	go handleSignals(acc, snap)

	log.Infof("radish ready to serve at %s:%d", cfg.BindHost, cfg.BindPort)
	if err := acc.ListenAndServe(); err != nil {
		log.Critical(err.Error())
		os.Exit(1)
	}

	// ListenAndServe returns nil as soon as Shutdown closes the listener;
	// handleSignals then takes the final snapshot and exits the process, so
	// main blocks here instead of returning and ending the process first.
	select {}
}

func handleSignals(acc *acceptor.Acceptor, snap *snapshot.Engine) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs
	log.Info("Shutting down...")

	acc.Shutdown()
	snap.Stop()
	if err := snap.Save(); err != nil {
		log.Error(err.Error())
	}

	log.Info("Goodbye!")
	os.Exit(0)
}
